/*
Package docset owns every loaded configuration document and its groups.

🔄 Flow:
 1. Discover finds fsconfig.{json,yaml,yml,toml,hcl} below a root
 2. Load parses one document, builds its enabled groups and optionally starts them
 3. Watch reloads documents as they change and unloads them when removed

A document is always stopped before it is replaced or forgotten. A document
that fails to parse emits an initialize/load config failure followed by an
INFO hint, and is left unloaded.
*/
package docset
