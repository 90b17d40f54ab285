package system_info

import (
	"log/slog"
	"os"
	"strings"
)

// InfoService reports facts about the local installation that come from the
// filesystem rather than from SQL Server or the service control manager.
type InfoService struct {
	releasePathProvider func() string
	logger              *slog.Logger
}

func NewInfoService(releasePathProvider func() string, logger *slog.Logger) *InfoService {
	return &InfoService{
		releasePathProvider: releasePathProvider,
		logger:              logger,
	}
}

// ReleaseNumber reads the installed release number from the release file.
// A missing file yields "N/A", an unreadable one "ERR".
func (s *InfoService) ReleaseNumber() string {
	releasePath := s.releasePathProvider()
	if releasePath == "" {
		return "N/A"
	}

	content, err := os.ReadFile(releasePath)
	if os.IsNotExist(err) {
		return "N/A"
	}
	if err != nil {
		s.logger.Error("Failed to read release number", "path", releasePath, "error", err)
		return "ERR"
	}

	return strings.TrimSpace(string(content))
}
