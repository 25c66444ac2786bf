// Command mixdump prints the contents of a mix recipe database and can
// export it to SQLite or re-encrypt it with another cipher. With -audit it
// prints a mix audit file instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/bernatvadell/muonline-sub002/internal/auditlog"
	"github.com/bernatvadell/muonline-sub002/internal/cipher"
	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
	"github.com/bernatvadell/muonline-sub002/internal/mixdb"
	"github.com/bernatvadell/muonline-sub002/internal/recipeindex"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "recipe database file (.bmd, or .zst); empty uses the bundled one")
		cipherName = flag.String("cipher", "bux", "cipher of the input database: bux or blowfish")
		cipherKey  = flag.String("key", "", "blowfish key of the input database")
		verbose    = flag.Bool("v", false, "list every recipe with its rate formula")
		itemsPath  = flag.String("items", "", "item registry YAML included in the -sqlite export")
		auditPath  = flag.String("audit", "", "print the entries of a mix audit file and exit")
		sqlitePath = flag.String("sqlite", "", "export recipes to this SQLite file")
		packPath   = flag.String("pack", "", "write the database re-encrypted to this file")
		packCipher = flag.String("pack-cipher", "bux", "cipher used by -pack")
		packKey    = flag.String("pack-key", "", "blowfish key used by -pack")
	)
	flag.Parse()

	if *auditPath != "" {
		if err := printAudit(*auditPath); err != nil {
			log.Fatalf("Failed to read audit file: %v", err)
		}
		return
	}

	c, err := cipher.New(*cipherName, *cipherKey)
	if err != nil {
		log.Fatalf("Invalid cipher: %v", err)
	}
	src := mixdb.Embedded()
	if *dbPath != "" {
		src = mixdb.File(*dbPath)
	}
	svc := mixdb.NewService(src, c)
	db := svc.Database()

	if err := printSummary(db, *verbose); err != nil {
		log.Fatalf("Failed to print summary: %v", err)
	}

	if *sqlitePath != "" {
		var registry *item.Registry
		if *itemsPath != "" {
			if registry, err = item.LoadRegistry(*itemsPath); err != nil {
				log.Fatalf("Failed to load item registry: %v", err)
			}
		}
		if err := recipeindex.Export(context.Background(), *sqlitePath, db, registry); err != nil {
			log.Fatalf("Failed to export recipes: %v", err)
		}
		log.Printf("Exported %d recipes to %s", db.Count(), *sqlitePath)
	}

	if *packPath != "" {
		out, err := cipher.New(*packCipher, *packKey)
		if err != nil {
			log.Fatalf("Invalid pack cipher: %v", err)
		}
		data, err := mixdb.Pack(db, out)
		if err != nil {
			log.Fatalf("Failed to pack database: %v", err)
		}
		if err := os.WriteFile(*packPath, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", *packPath, err)
		}
		log.Printf("Wrote %d bytes to %s", len(data), *packPath)
	}
}

func printSummary(db *mixdb.Database, verbose bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	counts := db.Counts()
	fmt.Fprintln(w, "CATEGORY\tRECIPES")
	for i, n := range counts {
		fmt.Fprintf(w, "%s\t%d\n", mix.Category(i), n)
	}
	fmt.Fprintf(w, "total\t%d\n", db.Count())
	if err := w.Flush(); err != nil {
		return err
	}
	if !verbose {
		return nil
	}

	fmt.Println()
	fmt.Fprintln(w, "CATEGORY\tINDEX\tMIX ID\tLEVEL\tSLOTS\tMAX\tZEN\tRATE")
	for i := range counts {
		for _, r := range db.Recipes(mix.Category(i)) {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%c %d\t%s\n",
				r.Category, r.Index, r.MixID, r.RequiredLevel, len(r.Slots()),
				r.MaxSuccessRate, printable(r.CurrencyType), r.Currency, r.Program())
		}
	}
	return w.Flush()
}

func printAudit(path string) error {
	entries, err := auditlog.ReadFile(path)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPLAYER\tFACILITY\tITEMS\tOUTCOME\tRATE\tZEN")
	for _, e := range entries {
		outcome := "-"
		switch {
		case e.Matched != nil:
			outcome = fmt.Sprintf("matched %s/%d (mix %d)", e.Matched.Category, e.Matched.Index, e.MatchedID)
		case e.Similar != nil:
			outcome = fmt.Sprintf("similar %s/%d", e.Similar.Category, e.Similar.Index)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
			e.Time.Format(time.RFC3339), e.PlayerID, e.Facility, e.ItemCount, outcome, e.SuccessRate, e.RequiredZen)
	}
	return w.Flush()
}

func printable(b byte) byte {
	if b < 0x20 || b > 0x7e {
		return '?'
	}
	return b
}
