/*
Package watch drives the mirror engine from filesystem notifications.

	+------------+    Change{Rel}    +-----------+    Reconcile(rel)    +--------------+
	|    Tree    | ----------------> |  Session  | -------------------> | Synchronizer |
	| (fsnotify) |                   | (per rule)|   via Dispatcher     |   (mirror)   |
	+------------+                   +-----------+                      +--------------+

🎯 Purpose:
- Watch a source root recursively, adding directories as they appear
- Turn raw notifications into root-relative hints
- Run one reconcile at a time across every session sharing a Dispatcher

🔄 Session lifecycle:
 1. Stopped: no tree attached
 2. Start: resolve paths (once), bootstrap pass, attach tree, emit sync_watching
 3. Watching: every hint reconciles that path
 4. Stop, context cancellation or root removal: close tree, emit sync_closed

A failed attach emits "not watching" and leaves the session Stopped.

⚠️ Rules sharing a process must not have overlapping destination trees.
*/
package watch
