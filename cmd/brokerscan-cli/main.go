package main

import (
	"brokerscan/cmd/brokerscan-cli/commands"
	"brokerscan/lib/serviceutil"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	commands.ExecuteContext(serviceutil.SignalContext())
}
