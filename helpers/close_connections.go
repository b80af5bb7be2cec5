package helpers

import (
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/sirupsen/logrus"
)

func HandleCloseConnections() error {
	if config.GetConfig() == nil {
		return nil
	}

	// handle to close DB connection
	if config.GetConfig().DB != nil {
		db, err := config.GetConfig().DB.DB()
		if err == nil {
			_ = db.Close()
		}
	}

	// close redis
	if config.GetConfig().RDS != nil {
		_ = config.GetConfig().RDS.Close()
	}

	// close logger
	logrus.Exit(0)

	return nil
}
