// Package config manages the profiles available to pushbox sessions.
//
// A profile is presentation and input only: the tokens that move the actor
// and the glyphs used to draw the board. Profiles never describe a layout;
// every session starts from the same built-in field.
//
// Profile Format:
//
// Profiles are YAML (.yaml, .yml) or JSON (.json) files in the profiles
// directory:
//
//	name: vim
//	description: h/j/k/l to move
//	bindings:
//	  h: left
//	  j: down
//	  k: up
//	  l: right
//	glyphs:
//	  empty: " "
//	  object: o
//	  actor: p
//	  goal: "."
//	  object_on_goal: O
//	  actor_on_goal: P
//	  wall: "#"
//
// Usage:
//
//	manager, err := config.NewManager("profiles")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := manager.LoadProfile("vim")
//	profiles, err := manager.ListProfiles()
//
// When no classic profile exists on disk the manager falls back to the first
// loadable profile and then to the built-in classic profile.
package config
