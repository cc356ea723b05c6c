package main

import (
	"flag"
	"log"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/report"
	"github.com/cdw/institute/pkg/storage"
	"github.com/cdw/institute/pkg/types"
)

var (
	basePath = flag.String("base-path", config.DefaultBasePath, "Institute base directory")
	dryRun   = flag.Bool("dry-run", false, "Show what would be created without making changes")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Institute Bootstrap Tool")
	log.Println("========================")

	paths := config.NewPaths(*basePath)
	log.Printf("Base path: %s", paths.Base)
	log.Printf("Dry run: %v", *dryRun)

	if *dryRun {
		log.Println("\n[DRY RUN] Would perform the following operations:")
		log.Println("1. Create the directory tree")
		log.Printf("2. Apply schemas to the five stores under %s", paths.DBDir)
		log.Println("3. Seed the NORMAL mode row and default config keys")
		log.Printf("4. Install default report templates into %s", paths.SharedTemplatesDir)
		log.Println("\nDry run completed. No changes made.")
		log.Println("Run without --dry-run to initialize the tree.")
		return
	}

	if err := paths.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directory tree: %v", err)
	}
	log.Println("✓ Directory tree created")

	if err := storage.Bootstrap(paths, types.SystemClock{}); err != nil {
		log.Fatalf("Failed to bootstrap stores: %v", err)
	}
	log.Println("✓ Schemas applied and initial state seeded")

	installed, err := report.InstallDefaultTemplates(paths.SharedTemplatesDir)
	if err != nil {
		log.Fatalf("Failed to install report templates: %v", err)
	}
	if len(installed) == 0 {
		log.Println("✓ Report templates already present")
	}
	for _, name := range installed {
		log.Printf("✓ Installed template %s", name)
	}

	// Post-check: the same verdicts the watchdog and the recovery gate
	// will demand from these stores later.
	healthy := true
	for _, db := range paths.Databases() {
		if storage.IntegrityCheck(db.Path) {
			log.Printf("✓ %s.db integrity ok", db.Name)
		} else {
			log.Printf("✗ %s.db integrity FAILED", db.Name)
			healthy = false
		}
	}
	if !healthy {
		log.Fatalf("Bootstrap left unhealthy stores; inspect %s", paths.DBDir)
	}

	log.Println("\n✓ Bootstrap completed successfully!")
}
