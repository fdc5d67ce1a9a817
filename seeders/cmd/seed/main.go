package main

import (
	"flag"
	"log"

	"admin-system/pkg/config"
	"admin-system/pkg/database/postgresql"
	"admin-system/seeders"
)

func main() {
	runAdmin := flag.Bool("admin", false, "seed the superadmin account")
	runDepts := flag.Bool("departments", false, "seed the starter department tree")
	runAll := flag.Bool("all", false, "run every seeder")
	flag.Parse()

	if !*runAdmin && !*runDepts && !*runAll {
		log.Println("no seeder selected")
		flag.PrintDefaults()
		return
	}

	cfg := config.New()
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	if *runDepts || *runAll {
		seeders.SeedDepartments(dbPool)
	}
	if *runAdmin || *runAll {
		seeders.SeedAdmin(dbPool, cfg)
	}
	log.Println("seeding finished")
}
