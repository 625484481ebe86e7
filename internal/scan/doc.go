// Package scan discovers candidate media files beneath a source root,
// producing a deterministic sorted sequence and pairing videos with their
// thumbnail companions.
package scan
