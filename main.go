package main

import "github.com/health-pal-uit/health-pal-server-sub000/cmd/healthpal"

func main() {
	healthpal.Execute()
}
