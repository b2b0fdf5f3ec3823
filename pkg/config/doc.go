/*
Package config loads filesync configuration documents.

	            +--------------+
	            |   Document   |
	            | fsconfig.*   |
	            +------+-------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+-----+             +-----+-----+
	|   Group   |     ...     |   Group   |
	| (enabled) |             | (enabled) |
	+-----+-----+             +-----------+
	      |
	+-----+-----+
	|   Rules   |
	| src->dest |
	+-----------+

🎯 Purpose:
- Parse documents in JSON, YAML, TOML or HCL through one Parser registry
- Accept a single string or a list for files and ignore
- Accept a single rule or a list of rules for sync (JSON, YAML, TOML)
- Reject unknown fields in every format
- Write the default template without ever overwriting a document

🔍 Example:

	doc, err := config.Load(ctx, "fsconfig.json")
	if err != nil {
		return err
	}
	for _, g := range doc.Configs {
		fmt.Println(g.Name, g.Enabled, len(g.Sync))
	}

Relative src and dest entries resolve against Document.Dir.
*/
package config
