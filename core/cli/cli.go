package cli

import (
	cliContext "github.com/voxscribe/voxscribe/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Run        RunCMD        `cmd:"" help:"Run the voxscribe API server. This is the default command if no other command is specified." default:"withargs"`
	Transcript TranscriptCMD `cmd:"" help:"Transcribe a local audio file to stdout"`
}
