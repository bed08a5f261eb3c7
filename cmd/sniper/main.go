package main

import "solana-sniper/internal/cli"

func main() {
	cli.Execute()
}
