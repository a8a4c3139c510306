// Command promo-seed loads a PromoConfig YAML file and writes it to the
// promo_config store, in the style of the teacher's one-shot
// cmd/fix-webhook-table tool: a flag-driven, stdlib-log, single-purpose
// main() rather than a CLI framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
)

func main() {
	var (
		seedFile string
		mongoURL string
		database string
		pgDSN    string
		force    bool
	)
	flag.StringVar(&seedFile, "seed-file", "", "path to the PromoConfig seed YAML file (required)")
	flag.StringVar(&mongoURL, "mongo-url", "", "Mongo connection string (mutually exclusive with -postgres-dsn)")
	flag.StringVar(&database, "database", "earnings_core", "Mongo database name")
	flag.StringVar(&pgDSN, "postgres-dsn", "", "Postgres connection string (mutually exclusive with -mongo-url)")
	flag.BoolVar(&force, "force", false, "overwrite an existing promo_config document instead of leaving it alone")
	flag.Parse()

	if seedFile == "" {
		log.Fatal("missing required -seed-file")
	}
	if mongoURL == "" && pgDSN == "" {
		log.Fatal("one of -mongo-url or -postgres-dsn is required")
	}

	cfg, err := promoconfig.LoadSeedFile(seedFile)
	if err != nil {
		log.Fatal(err)
	}

	var repo promoconfig.Repository
	switch {
	case pgDSN != "":
		repo, err = promoconfig.NewRepository(promoconfig.RepositoryConfig{
			Backend:     "postgres",
			PostgresDSN: pgDSN,
		})
	default:
		repo, err = promoconfig.NewRepository(promoconfig.RepositoryConfig{
			Backend:  "mongo",
			MongoURL: mongoURL,
			Database: database,
		})
	}
	if err != nil {
		log.Fatal("connect repository:", err)
	}
	defer repo.Close()

	ctx := context.Background()

	if !force {
		if err := promoconfig.SeedIfEmpty(ctx, repo, cfg); err != nil {
			log.Fatal("seed promo config:", err)
		}
		fmt.Println("promo config seeded (existing document, if any, left untouched)")
		os.Exit(0)
	}

	cfg.UpdatedBy = "promo-seed-tool"
	if err := repo.Save(ctx, cfg); err != nil {
		log.Fatal("save promo config:", err)
	}
	fmt.Println("promo config overwritten from seed file")
}
