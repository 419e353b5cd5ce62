// Command skiranker crawls ski resort listings and serves resort rankings.
package main

import "github.com/JakeFAU/skiresort-ranker/cmd"

func main() {
	cmd.Execute()
}
