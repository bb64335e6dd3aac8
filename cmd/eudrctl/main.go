// eudrctl is the command line client for the EUDR dashboard API and gateway
package main

import "github.com/information-sharing-networks/eudr-dashboard/internal/cli"

func main() {
	cli.Execute()
}
