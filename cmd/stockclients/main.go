package main

import (
	"stockclients/cmd/stockclients/commands"
	"stockclients/pkg/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
