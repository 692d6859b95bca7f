// Package store persists content items, taxonomy terms, custom fields and user
// capabilities, and serves them to the portal through the content.Provider,
// content.MetaReader, content.CapabilityChecker and taxonomy.Store interfaces.
//
// [SQL] runs on Postgres and SQLite (see pkg/db); the schema ships as embedded
// goose migrations, one set per dialect:
//
//	conn, _ := db.Open(ctx, cfg)
//	s := store.NewSQL(conn, cfg.Driver)
//	if err := s.Migrate(ctx, cfg.MigrationsTable, log); err != nil {
//	    return err
//	}
//
// [Memory] implements the same contracts over plain slices and is what unit
// tests and the demo theme use.
//
// Both backends accept a [Fixture], usually decoded from YAML with [LoadFixture],
// to seed content.
package store
