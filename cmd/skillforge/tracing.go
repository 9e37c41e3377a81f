package main

import (
	"context"

	"github.com/jingkaihe/skillforge/pkg/telemetry"
	"github.com/jingkaihe/skillforge/pkg/version"
	"github.com/spf13/viper"
)

// initTracing initializes OpenTelemetry tracing from the tracing.* config keys
func initTracing(ctx context.Context) (func(context.Context) error, error) {
	return telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    "skillforge",
		ServiceVersion: version.Get().Version,
		SkillsDir:      viper.GetString("skills_dir"),
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	})
}

func init() {
	serveCmd.Flags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	serveCmd.Flags().String("tracing-sampler", "ratio", "Tracing sampler type (always, never, ratio)")
	serveCmd.Flags().Float64("tracing-ratio", 1, "Sampling ratio when using ratio sampler")

	viper.BindPFlag("tracing.enabled", serveCmd.Flags().Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", serveCmd.Flags().Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.ratio", serveCmd.Flags().Lookup("tracing-ratio"))
}
