package system_info

import (
	"sync"

	"github.com/Hossam1104/pos-admin-tool/internal/features/settings"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var (
	infoServiceOnce sync.Once
	infoService     *InfoService

	infoControllerOnce sync.Once
	infoController     *InfoController
)

func GetInfoService() *InfoService {
	infoServiceOnce.Do(func() {
		infoService = NewInfoService(func() string {
			snapshot, err := settings.GetSettingsManager().Snapshot()
			if err != nil {
				return ""
			}
			return snapshot.ReleasePath
		}, logger.GetLogger())
	})

	return infoService
}

func GetInfoController() *InfoController {
	infoControllerOnce.Do(func() {
		infoController = &InfoController{GetInfoService()}
	})

	return infoController
}
