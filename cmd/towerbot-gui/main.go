package main

import (
	"flag"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/tower-bot-go/internal/gui"
	"jordanella.com/tower-bot-go/internal/launcher"
	"jordanella.com/tower-bot-go/internal/logging"
)

func main() {
	iniPath := flag.String("config", "Settings.ini", "path to Settings.ini")
	flag.Parse()

	myApp := app.NewWithID("com.jordanella.tower-bot-go")
	myApp.Settings().SetTheme(&gui.TowerTheme{})

	mainWindow := myApp.NewWindow("The Tower Bot")
	mainWindow.Resize(gui.DefaultWindowSize)

	// The log tab receives every line, including those written while connecting
	logTab := gui.NewLogTab()
	logging.Setup(logging.Options{Level: logging.LogLevelInfo, Outputs: logOutputs(logTab)})
	log := logging.NewLogger("Main")

	var controller *gui.Controller
	var connect func()
	connect = func() {
		l, err := launcher.Open(*iniPath)
		if err != nil {
			log.Error("Failed to start", err)
			mainWindow.SetContent(connectError(err, connect, logTab))
			return
		}
		level := logging.ParseLevel(l.Bot().Settings().LogLevel)
		logging.Setup(logging.Options{Level: level, Outputs: logOutputs(logTab)})

		controller = gui.NewController(l, myApp, mainWindow, logTab)
		mainWindow.SetContent(controller.BuildUI())
	}
	connect()

	mainWindow.SetMaster()
	mainWindow.ShowAndRun()

	if controller != nil {
		controller.Shutdown()
	}
}

func logOutputs(logTab *gui.LogTab) []io.Writer {
	return []io.Writer{os.Stdout, logTab}
}

// connectError shows why the device could not be opened with a retry button
func connectError(err error, retry func(), logTab *gui.LogTab) fyne.CanvasObject {
	message := widget.NewLabel(err.Error())
	message.Wrapping = fyne.TextWrapWord

	return container.NewBorder(
		container.NewVBox(
			widget.NewLabelWithStyle("Could not start the bot", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			message,
			widget.NewButton("Retry", retry),
		),
		nil, nil, nil,
		logTab.Build(),
	)
}
