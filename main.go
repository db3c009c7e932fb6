// @title E-Voting API
// @version 1.0
// @description Backend API for the college election: registration, OTP login, voting and audit trail

// @securityDefinitions.apikey BearerToken
// @in header
// @name Authorization
package main

import (
	_ "github.com/NITHINKR06/e-voting-backend/docs"

	"github.com/NITHINKR06/e-voting-backend/api"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/spf13/viper"
)

func main() {
	logging.BoostrapLogger()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Errorf("Failed to read config file: %v", err)
		panic("Failed to read config file: " + err.Error())
	}

	// Read config
	config := api.ReadConfig()

	// Start the service (locally or inside the lambda)
	service := api.NewServer(config)
	service.Start()
}
