package desktop

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"entrate/internal/core"
)

const (
	appID        = "dev.entrate.desktop"
	windowTitle  = "Entrate"
	windowWidth  = 760
	windowHeight = 560
)

// Window wires the Fyne widgets to a Controller. All handlers run on the UI
// thread; the controller does the locking.
type Window struct {
	fyneApp    fyne.App
	window     fyne.Window
	controller *Controller

	amountEntry *widget.Entry
	dateEntry   *widget.Entry
	errorLabel  *widget.Label

	totalLabel   *widget.Label
	countLabel   *widget.Label
	averageLabel *widget.Label
	maxLabel     *widget.Label

	sortButton *widget.Button
	recordList *widget.List

	// rows backs the list widget closures; updated only via render.
	rows []core.IncomeRecord
}

func NewWindow(controller *Controller) *Window {
	fyneApp := app.NewWithID(appID)

	w := &Window{
		fyneApp:    fyneApp,
		window:     fyneApp.NewWindow(windowTitle),
		controller: controller,
	}
	w.window.Resize(fyne.NewSize(windowWidth, windowHeight))
	w.window.CenterOnScreen()

	w.buildUI()
	return w
}

// Run loads the initial state and enters the Fyne main loop.
func (w *Window) Run() {
	ctx, cancel := opCtx()
	state, err := w.controller.Refresh(ctx)
	cancel()
	if err != nil {
		slog.Error("Initial record load failed", "error", err)
	}
	w.render(state)

	w.window.ShowAndRun()
}

func (w *Window) buildUI() {
	w.amountEntry = widget.NewEntry()
	w.amountEntry.SetPlaceHolder("0,00")

	w.dateEntry = widget.NewEntry()
	w.dateEntry.SetPlaceHolder("AAAA-MM-GG")
	w.dateEntry.SetText(core.Today().ISO())

	w.errorLabel = widget.NewLabel("")
	w.errorLabel.Importance = widget.DangerImportance
	w.errorLabel.Hide()

	addButton := widget.NewButton("Aggiungi", w.onAdd)
	addButton.Importance = widget.HighImportance

	form := container.NewVBox(
		widget.NewLabelWithStyle("Registra Entrata", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2,
			container.NewVBox(widget.NewLabel("Importo (€)"), w.amountEntry),
			container.NewVBox(widget.NewLabel("Data"), w.dateEntry),
		),
		addButton,
		w.errorLabel,
	)

	w.totalLabel = widget.NewLabelWithStyle("€0,00", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	w.countLabel = widget.NewLabel("0")
	w.averageLabel = widget.NewLabel("€0,00")
	w.maxLabel = widget.NewLabel("€0,00")

	statsGrid := container.NewGridWithColumns(4,
		container.NewVBox(widget.NewLabel("Totale"), w.totalLabel),
		container.NewVBox(widget.NewLabel("Numero"), w.countLabel),
		container.NewVBox(widget.NewLabel("Media"), w.averageLabel),
		container.NewVBox(widget.NewLabel("Massima"), w.maxLabel),
	)

	w.recordList = widget.NewList(
		func() int { return len(w.rows) },
		func() fyne.CanvasObject {
			date := widget.NewLabel("00/00/0000")
			amount := widget.NewLabel("€0,00")
			return container.NewHBox(date, layout.NewSpacer(), amount)
		},
		func(i widget.ListItemID, item fyne.CanvasObject) {
			if i < 0 || i >= len(w.rows) {
				return
			}
			rec := w.rows[i]
			box := item.(*fyne.Container)
			box.Objects[0].(*widget.Label).SetText(rec.Date.Display())
			box.Objects[2].(*widget.Label).SetText(core.FormatEuros(rec.Amount.Cents))
		},
	)
	w.recordList.OnSelected = func(i widget.ListItemID) {
		if i >= 0 && i < len(w.rows) {
			w.controller.Select(w.rows[i].ID)
		}
	}
	w.recordList.OnUnselected = func(widget.ListItemID) {
		w.controller.ClearSelection()
	}

	w.sortButton = widget.NewButton("Data ↓", w.onToggleSort)
	deleteButton := widget.NewButton("Elimina selezionata", w.onDelete)

	listHeader := container.NewHBox(
		widget.NewLabelWithStyle("Entrate registrate", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		layout.NewSpacer(),
		w.sortButton,
		deleteButton,
	)

	top := container.NewVBox(
		form,
		widget.NewSeparator(),
		statsGrid,
		widget.NewSeparator(),
		listHeader,
	)

	w.window.SetContent(container.NewBorder(top, nil, nil, nil, w.recordList))
}

func (w *Window) onAdd() {
	ctx, cancel := opCtx()
	defer cancel()

	state, err := w.controller.Add(ctx, w.amountEntry.Text, w.dateEntry.Text)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			w.showFormError("Importo non valido")
		case errors.Is(err, core.ErrFutureDate):
			w.showFormError("La data non può essere nel futuro")
		case errors.Is(err, core.ErrInvalidDate):
			w.showFormError("Data non valida (usa AAAA-MM-GG)")
		default:
			// Storage failure: the record may survive in memory, so render
			// whatever the controller reports and keep the window running.
			slog.Error("Failed to save record", "error", err)
			dialog.ShowError(err, w.window)
			w.render(state)
		}
		return
	}

	w.clearFormError()
	w.amountEntry.SetText("")
	w.dateEntry.SetText(core.Today().ISO())
	w.render(state)
}

func (w *Window) onDelete() {
	if w.controller.State().SelectedID == 0 {
		dialog.ShowInformation("Nessuna selezione", "Seleziona un'entrata da eliminare", w.window)
		return
	}

	dialog.ShowConfirm("Eliminare l'entrata?", "L'entrata selezionata sarà rimossa dal registro.", func(confirmed bool) {
		if !confirmed {
			return
		}

		ctx, cancel := opCtx()
		defer cancel()

		state, err := w.controller.Delete(ctx)
		if err != nil {
			if errors.Is(err, ErrNoSelection) {
				dialog.ShowInformation("Nessuna selezione", "Seleziona un'entrata da eliminare", w.window)
				return
			}
			slog.Error("Failed to delete record", "error", err)
			dialog.ShowError(err, w.window)
			return
		}

		w.recordList.UnselectAll()
		w.render(state)
	}, w.window)
}

func (w *Window) onToggleSort() {
	state := w.controller.ToggleSort()
	if state.SortAsc {
		w.sortButton.SetText("Data ↑")
	} else {
		w.sortButton.SetText("Data ↓")
	}
	w.render(state)

	// Re-point the widget selection at the same record after the resort.
	if state.SelectedID != 0 {
		for i, rec := range state.Records {
			if rec.ID == state.SelectedID {
				w.recordList.Select(i)
				break
			}
		}
	}
}

func (w *Window) render(state State) {
	w.rows = state.Records
	w.totalLabel.SetText(core.FormatEuros(state.Stats.Total.Cents))
	w.countLabel.SetText(strconv.Itoa(state.Stats.Count))
	w.averageLabel.SetText(core.FormatEuros(state.Stats.Average.Cents))
	w.maxLabel.SetText(core.FormatEuros(state.Stats.Max.Cents))
	w.recordList.Refresh()
}

func (w *Window) showFormError(msg string) {
	w.errorLabel.SetText(msg)
	w.errorLabel.Show()
	dialog.ShowError(errors.New(msg), w.window)
}

func (w *Window) clearFormError() {
	w.errorLabel.SetText("")
	w.errorLabel.Hide()
}

// opCtx bounds a single store operation.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
