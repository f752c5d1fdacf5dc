// Package cli implements the auval command-line interface.
//
// # Commands
//
// validate: Run the probe battery against one component
//
//	auval validate aufx dely tsti
//	auval validate -numeric 1635083896 1684368505 1953723241 0
//	auval validate -seed 42 -repetitions 1 -json aufx dely tsti
//
// The optional fourth argument is the initial requires-initialization
// flag; it defaults to 1. The command returns an *ExitError whose Code is
// the numeric validator.Status, which main uses as the process exit code.
//
// list: List the catalog
//
//	auval list
//	auval list -type augn
//
// Without -type only effects, music effects and music devices with names
// longer than five characters are listed.
//
// exceptions: Print the effective exception table
//
//	auval exceptions
//	auval exceptions -file extra.yaml -yaml
//
// history: Show recorded runs
//
//	auval history -limit 50
//	auval history aufx dely tsti
//
// # Configuration
//
// Defaults come from pkg/config (AUVAL_* environment variables); flags
// override them per invocation.
//
// # Related Packages
//
//   - pkg/validator: Runs the battery
//   - pkg/catalog: Discovers components
//   - pkg/history: Records runs
package cli
