package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Landed Cost Analysis API
// @version         0.1.0
// @description     Scenario modeling, batch savings analysis and job orchestration.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
