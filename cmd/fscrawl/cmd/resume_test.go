package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestResumeCommandStructure(t *testing.T) {
	assert.Equal(t, "resume", resumeCmd.Use)
	assert.NotNil(t, resumeCmd.RunE)
}

func TestResumeSharesCrawlFlagsWithRun(t *testing.T) {
	runNames := map[string]bool{}
	runCmd.Flags().VisitAll(func(f *pflag.Flag) { runNames[f.Name] = true })
	resumeCmd.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Truef(t, runNames[f.Name], "resume flag %q should also exist on run", f.Name)
	})
}

func TestResumeIsAddedToRoot(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "resume" {
			found = true
		}
	}
	assert.True(t, found)
}
