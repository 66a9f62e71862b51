package main

// Flag structs to decouple cobra from logic for testing.

// RunFlags holds flags for the run command.
type RunFlags struct {
	ConfigPath string
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	ConfigPath string
	JSON       bool
}

// ResumeFlags holds flags for the resume command.
type ResumeFlags struct {
	ConfigPath string
}
