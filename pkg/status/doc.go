/*
Package status reports what every loaded document is doing.

	+-----------+     Collect     +-------+     Render / FormatRow
	|  docset   | --------------> | []Row | --------------------------> terminal
	|   .Set    |                 +-------+
	+-----------+

🎯 Purpose:
- Flatten documents, groups and rules into rows
- Show each rule's live state next to its configuration
- Keep long paths readable

Disabled groups are listed with their rules but are never watching.
*/
package status
