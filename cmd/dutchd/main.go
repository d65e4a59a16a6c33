package main

import "github.com/hola-official/ReverseDutchAuctionSwap/internal/cli"

func main() {
	cli.Execute()
}
