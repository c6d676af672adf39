// Package moderation provides content screening for tutor-parent chat
// messages. A static rule engine scans each message against categorized
// pattern groups, an optional external classifier contributes additional
// category signals on a best-effort basis, and the engine merges both into
// a single allow/warn/block decision before a message is delivered.
package moderation
