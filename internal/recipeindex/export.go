// Package recipeindex writes a decoded mix database into SQLite so recipes
// can be inspected with ordinary SQL tools.
package recipeindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

// Export replaces the contents of the SQLite file at path with every recipe
// of src and, when reg is not nil, the item registry.
func Export(ctx context.Context, path string, src mix.RecipeSource, reg *item.Registry) error {
	if path == "" {
		return fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := initPragmas(ctx, db); err != nil {
		return err
	}
	if err := initSchema(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := writeRecipes(ctx, tx, src); err != nil {
		return err
	}
	if err := writeItems(ctx, tx, reg.Export()); err != nil {
		return err
	}
	return tx.Commit()
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			category INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			category_name TEXT NOT NULL,
			mix_index INTEGER NOT NULL,
			mix_id INTEGER NOT NULL,
			name_key INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			required_level INTEGER NOT NULL,
			currency_type TEXT NOT NULL,
			currency INTEGER NOT NULL,
			max_success_rate INTEGER NOT NULL,
			rate_formula TEXT NOT NULL,
			mix_option TEXT NOT NULL,
			charm_option TEXT NOT NULL,
			chaos_charm_option TEXT NOT NULL,
			PRIMARY KEY (category, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS recipe_sources (
			category INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			type_min INTEGER NOT NULL,
			type_max INTEGER NOT NULL,
			level_min INTEGER NOT NULL,
			level_max INTEGER NOT NULL,
			option_min INTEGER NOT NULL,
			option_max INTEGER NOT NULL,
			durability_min INTEGER NOT NULL,
			durability_max INTEGER NOT NULL,
			count_min INTEGER NOT NULL,
			count_max INTEGER NOT NULL,
			special_flags INTEGER NOT NULL,
			PRIMARY KEY (category, idx, slot),
			FOREIGN KEY (category, idx) REFERENCES recipes(category, idx) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS rate_tokens (
			category INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			pos INTEGER NOT NULL,
			opcode INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (category, idx, pos),
			FOREIGN KEY (category, idx) REFERENCES recipes(category, idx) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			type INTEGER PRIMARY KEY,
			grp INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			name TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			stackable INTEGER NOT NULL,
			wing INTEGER NOT NULL,
			jewel INTEGER NOT NULL,
			mix_value INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS recipe_sources_type ON recipe_sources(type_min, type_max);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func writeRecipes(ctx context.Context, tx *sql.Tx, src mix.RecipeSource) error {
	for _, table := range []string{"rate_tokens", "recipe_sources", "recipes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insRecipe, err := tx.PrepareContext(ctx, `INSERT INTO recipes(
		category, idx, category_name, mix_index, mix_id, name_key, width, height,
		required_level, currency_type, currency, max_success_rate, rate_formula,
		mix_option, charm_option, chaos_charm_option
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer insRecipe.Close()
	insSource, err := tx.PrepareContext(ctx, `INSERT INTO recipe_sources(
		category, idx, slot, type_min, type_max, level_min, level_max,
		option_min, option_max, durability_min, durability_max,
		count_min, count_max, special_flags
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer insSource.Close()
	insToken, err := tx.PrepareContext(ctx, `INSERT INTO rate_tokens(category, idx, pos, opcode, value) VALUES (?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer insToken.Close()

	for c := mix.Category(0); c < mix.MaxCategories; c++ {
		recipes := src.Recipes(c)
		for i := range recipes {
			r := &recipes[i]
			if _, err := insRecipe.ExecContext(ctx,
				int(c), r.Index, c.String(), r.MixIndex, r.MixID, r.Name[0], r.Width, r.Height,
				r.RequiredLevel, optionText(r.CurrencyType), int64(r.Currency), r.MaxSuccessRate,
				r.Program().String(),
				optionText(r.MixOption), optionText(r.CharmOption), optionText(r.ChaosCharmOption),
			); err != nil {
				return fmt.Errorf("insert recipe %s/%d: %w", c, r.Index, err)
			}
			for slot, s := range r.Slots() {
				if _, err := insSource.ExecContext(ctx,
					int(c), r.Index, slot, s.TypeMin, s.TypeMax, s.LevelMin, s.LevelMax,
					s.OptionMin, s.OptionMax, s.DurabilityMin, s.DurabilityMax,
					s.CountMin, s.CountMax, int64(s.SpecialFlags),
				); err != nil {
					return fmt.Errorf("insert source %s/%d/%d: %w", c, r.Index, slot, err)
				}
			}
			for pos, tok := range r.Program() {
				if _, err := insToken.ExecContext(ctx, int(c), r.Index, pos, int32(tok.Op), float64(tok.Value)); err != nil {
					return fmt.Errorf("insert token %s/%d/%d: %w", c, r.Index, pos, err)
				}
			}
		}
	}
	return nil
}

func writeItems(ctx context.Context, tx *sql.Tx, items []item.Details) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO items(
		type, grp, idx, name, width, height, stackable, wing, jewel, mix_value
	) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for _, d := range items {
		if _, err := ins.ExecContext(ctx,
			int(d.Type()), d.Group, d.Index, d.Name, d.Width, d.Height,
			d.Stackable, d.Wing, d.Jewel, int64(d.MixValue),
		); err != nil {
			return fmt.Errorf("insert item %d/%d: %w", d.Group, d.Index, err)
		}
	}
	return nil
}

// optionText renders a one byte flag; zero becomes the empty string.
func optionText(b byte) string {
	if b == 0 {
		return ""
	}
	return string(rune(b))
}
