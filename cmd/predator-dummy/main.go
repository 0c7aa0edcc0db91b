package main

import (
	"strconv"
	"strings"

	"github.com/Meesho/BharatMLStack/predator-probe/internal/dummy"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/config"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/httpframework"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/logger"
	"github.com/Meesho/BharatMLStack/predator-probe/pkg/metric"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs"
)

const (
	appName = "predator-dummy"

	envModels       = "DUMMY_MODELS"
	envNumScores    = "DUMMY_NUM_SCORES"
	envDropOutputs  = "DUMMY_DROP_OUTPUTS"
	envStatsRecords = "DUMMY_STATS_RECORDS"

	defaultModels = "retinanet_rn50fpn"
)

func main() {
	cfg, err := config.Load(appName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := logger.Init(cfg, nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	if err := metric.Init(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}
	defer metric.Close()

	viper.SetDefault(envModels, defaultModels)
	viper.SetDefault(envNumScores, dummy.DefaultNumScores)
	viper.SetDefault(envStatsRecords, -1)

	opts := dummy.Options{
		Models:       splitList(viper.GetString(envModels)),
		NumScores:    viper.GetInt(envNumScores),
		DropOutputs:  splitList(viper.GetString(envDropOutputs)),
		StatsRecords: viper.GetInt(envStatsRecords),
	}
	server := dummy.NewServer(opts)

	httpframework.Init()
	server.Register(httpframework.Instance())

	address := ":" + strconv.Itoa(cfg.AppPort)
	log.Info().Strs("models", opts.Models).Msgf("Dummy inference server listening on %s", address)
	if err := httpframework.Instance().Run(address); err != nil {
		log.Fatal().Err(err).Msg("Failed to serve")
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); len(part) > 0 {
			out = append(out, part)
		}
	}
	return out
}
