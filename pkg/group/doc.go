/*
Package group starts and stops the rules of one configured sync group.

Each Rule carries its configuration and, once used, the watch.Session that
serves it. StartAll and StopAll walk the rules in declaration order and
keep going past failures, returning every error joined. A disabled group
never starts.
*/
package group
