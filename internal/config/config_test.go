package config

import (
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func newTestViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(newTestViper(nil))

	if cfg.Server.Port != "8080" {
		t.Errorf("server port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Source.Mode != SourceDemo {
		t.Errorf("source mode = %q, want %q", cfg.Source.Mode, SourceDemo)
	}
	if cfg.Source.DemoSeed != 42 {
		t.Errorf("demo seed = %d, want 42", cfg.Source.DemoSeed)
	}
	if cfg.Forecast.HorizonDays != 14 || cfg.Forecast.MaxHorizonDays != 90 {
		t.Errorf("forecast horizon = %d max %d, want 14 max 90", cfg.Forecast.HorizonDays, cfg.Forecast.MaxHorizonDays)
	}
	if cfg.Planner.OrderingCostUSD != 50 || cfg.Planner.HoldingRate != 0.25 {
		t.Errorf("planner = %+v, want ordering 50 holding 0.25", cfg.Planner)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
	if cfg.Kafka.AlertTopic != "inventory.alerts" {
		t.Errorf("alert topic = %q", cfg.Kafka.AlertTopic)
	}
}

func TestFromViperOverrides(t *testing.T) {
	cfg := FromViper(newTestViper(map[string]interface{}{
		"SOURCE_MODE":           " Warehouse ",
		"FORECAST_HORIZON_DAYS": -3,
		"KAFKA_BROKERS":         []string{"k1:9092, k2:9092", ""},
	}))

	if cfg.Source.Mode != SourceWarehouse {
		t.Errorf("source mode = %q, want %q", cfg.Source.Mode, SourceWarehouse)
	}
	if cfg.Forecast.HorizonDays != 14 {
		t.Errorf("non-positive horizon should fall back to 14, got %d", cfg.Forecast.HorizonDays)
	}
	want := []string{"k1:9092", "k2:9092"}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, want) {
		t.Errorf("brokers = %v, want %v", cfg.Kafka.Brokers, want)
	}
}

func TestFromViperClampsDefaultHorizon(t *testing.T) {
	cfg := FromViper(newTestViper(map[string]interface{}{
		"FORECAST_HORIZON_DAYS":     60,
		"FORECAST_MAX_HORIZON_DAYS": 30,
	}))

	if cfg.Forecast.HorizonDays != 30 || cfg.Forecast.MaxHorizonDays != 30 {
		t.Errorf("forecast = %+v, want horizon and max 30", cfg.Forecast)
	}
}

func TestDatabaseDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "url wins",
			cfg:  DatabaseConfig{URL: "postgres://u:p@db:5432/inv", Host: "ignored"},
			want: "postgres://u:p@db:5432/inv",
		},
		{
			name: "fields",
			cfg:  DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "inv", SSLMode: "disable"},
			want: "host=db port=5432 user=u password=p dbname=inv sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
