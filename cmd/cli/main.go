package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

const usage = "expected 'export' or 'import' subcommands"

// campaignRecord is one entry of an import file.
type campaignRecord struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	TrackingID  string `json:"tracking_id" yaml:"tracking_id"`
	TargetURL   string `json:"target_url" yaml:"target_url"`
	IsActive    *bool  `json:"is_active" yaml:"is_active"`
}

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON or YAML file of campaigns to import")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	repo, err := sqldb.NewRepository(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to db")
	}
	defer repo.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := exportHits(ctx, repo, os.Stdout); err != nil {
			logging.Fatal().Err(err).Msg("Export failed")
		}
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		records, err := readCampaigns(*importFile)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to read import file")
		}
		n := importCampaigns(ctx, services.NewCampaignService(repo, cfg.BaseURL), records)
		logging.Info().Int("imported", n).Int("total", len(records)).Msg("Import finished")
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

// exportHits writes every stored hit, oldest first, as indented JSON.
func exportHits(ctx context.Context, repo ports.HitRepository, w io.Writer) error {
	hits, err := repo.DumpHits(ctx)
	if err != nil {
		return err
	}
	if hits == nil {
		hits = []domain.TrackedHit{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(hits)
}

func readCampaigns(filename string) ([]campaignRecord, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var records []campaignRecord
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return records, nil
}

// importCampaigns skips records whose tracking ID is taken and generates one
// for records without it.
func importCampaigns(ctx context.Context, svc ports.CampaignService, records []campaignRecord) int {
	count := 0
	for _, rec := range records {
		active := true
		if rec.IsActive != nil {
			active = *rec.IsActive
		}

		c, err := svc.CreateCampaign(ctx, domain.CampaignInput{
			Name:             rec.Name,
			Description:      rec.Description,
			TargetURL:        rec.TargetURL,
			IsActive:         active,
			GenerateID:       rec.TrackingID == "",
			CustomTrackingID: rec.TrackingID,
		})
		switch {
		case errors.Is(err, domain.ErrTrackingIDTaken):
			logging.Warn().Str("tracking_id", rec.TrackingID).Msg("Skipping existing tracking ID")
		case err != nil:
			logging.Error().Err(err).Str("name", rec.Name).Msg("Failed to import campaign")
		default:
			logging.Debug().Str("tracking_id", c.TrackingID).Msg("Imported campaign")
			count++
		}
	}
	return count
}
