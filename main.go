package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/api/handlers"
	"github.com/streamroom/streamroom-api/api/scheduler"
	"github.com/streamroom/streamroom-api/config"
	"github.com/streamroom/streamroom-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize databases, chat core and router
		log.Fatal(err)
	}

	sched := scheduler.NewScheduler(a.Presence(), a.Hub(), databases.NewRoomDatabase(a.DB()))
	sched.Start()
	defer sched.Stop()

	zap.S().Infow("streamroom-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseUrl,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
