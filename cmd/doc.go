// Package cmd implements the entries command line.
//
// Architecture overview:
//   - Configuration: internal/config loads YAML plus ENTRIES_* environment overrides through Viper and validates
//     meet keys, sources and the registry settings they require. internal/app turns it into long-lived services in
//     the root command's PersistentPreRunE and closes them afterwards.
//   - Harvest: internal/pipeline.Harvester walks meets in order. internal/source classifies each source (PDF path,
//     aggregator host, organizer site) and hands it to its adapter, which fetches documents through the cache store
//     and resolves athletes through internal/identity. The cache file is flushed after every new document or
//     lookup.
//   - Outputs: the entries file is always written; Cloud Storage and Postgres mirrors, a Pub/Sub notification and
//     the Prometheus endpoint are enabled by their config sections.
//   - Filter: internal/roster prunes the written file against plain-text roster listings, optionally in review mode.
//
// Commands: harvest, filter [--review], run [--review], calendar [-o path].
package cmd
