package bootstrap

import (
	"database/sql"
	"errors"

	"github.com/guregu/null/v6"
	"github.com/krobus00/market-feed-ingestor/internal/config"
	"github.com/krobus00/market-feed-ingestor/internal/util"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const migrationRootDir = "migration/postgresql/"

func StartMigrate(cmd *cobra.Command, args []string) {
	databaseName, _ := cmd.Flags().GetString("databaseName")
	actionType, _ := cmd.Flags().GetString("action")
	migrationName, _ := cmd.Flags().GetString("name")
	version, _ := cmd.Flags().GetInt64("version")

	migrationDir := migrationRootDir + databaseName

	db, err := sql.Open("postgres", config.Env.Database[databaseName].DSN)
	util.ContinueOrFatal(err)
	defer db.Close()

	err = goose.SetDialect("postgres")
	util.ContinueOrFatal(err)

	err = runMigration(db, migrationDir, actionType, migrationName, null.IntFrom(version))
	util.ContinueOrFatal(err)
}

func runMigration(db *sql.DB, dir, action, name string, version null.Int) error {
	switch action {
	case "create":
		if name == "" {
			return errors.New("migration name is required")
		}
		return goose.Create(db, dir, name, "sql")
	case "up":
		return goose.Up(db, dir, goose.WithAllowMissing())
	case "up-by-one":
		return goose.UpByOne(db, dir, goose.WithAllowMissing())
	case "up-to":
		return goose.UpTo(db, dir, version.Int64, goose.WithAllowMissing())
	case "down":
		return goose.Down(db, dir, goose.WithAllowMissing())
	case "down-to":
		return goose.DownTo(db, dir, version.Int64, goose.WithAllowMissing())
	case "status":
		return goose.Status(db, dir)
	case "reset":
		if err := goose.Reset(db, dir, goose.WithAllowMissing()); err != nil {
			return err
		}
		return goose.Up(db, dir, goose.WithAllowMissing())
	default:
		return errors.New("invalid command")
	}
}
