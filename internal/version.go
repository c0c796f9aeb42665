package internal

import "fmt"

var (
	Version = ""
	Commit  = ""
)

func PrintableVersion() string {
	if Version == "" {
		return "dev"
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
