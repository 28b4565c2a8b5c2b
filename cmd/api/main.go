package main

import (
	"go.uber.org/fx"

	"github.com/kooko-labs/kooko/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
