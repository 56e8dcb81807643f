// Command fscrawl is the CLI entry point for the FamilySearch Tree BFS
// crawler.
package main

import "github.com/dbsmedya/fscrawl/cmd/fscrawl/cmd"

func main() {
	cmd.Execute()
}
