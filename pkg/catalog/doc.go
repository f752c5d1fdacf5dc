// Package catalog discovers simulated components from YAML manifests.
//
// Each *.yaml or *.yml file in a component directory describes one
// component: its identity, buses, parameters, presets, views, saved state,
// migration sources and optional injected faults. Directories are scanned
// in order and the first manifest to declare an identity wins; manifests
// that fail to parse or validate are logged and skipped.
//
// Parsed manifests are converted to simulator specs lazily and kept in an
// LRU cache, so repeated validation runs of the same component do not
// re-read its file.
//
// # Usage
//
//	cat, err := catalog.New(catalog.DefaultDirs(), log)
//	if err != nil {
//		return err
//	}
//	if _, err := cat.Discover(ctx); err != nil {
//		return err
//	}
//	for _, d := range catalog.CompleteList(cat) {
//		fmt.Println(d.Identity, d.Name)
//	}
package catalog
