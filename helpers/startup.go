package helpers

import (
	"context"
	"os"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/factory"
	"gopkg.in/yaml.v3"
)

func PrepareServer(ctx context.Context, appCnf *config.AppConfig) error {
	// orm
	err := factory.NewDatabaseConnection(ctx, appCnf)
	if err != nil {
		return err
	}

	// set redis connection
	err = factory.NewRedisConnection(ctx, appCnf)
	if err != nil {
		return err
	}

	return nil
}

func ReadYamlConfigFile(filename string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	appCnf := new(config.AppConfig)
	err = yaml.Unmarshal(yamlFile, &appCnf)
	if err != nil {
		return nil, err
	}

	// get current working dir
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// set the root path
	appCnf.RootWorkingDir = wd

	return appCnf, err
}
