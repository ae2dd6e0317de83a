package i18n

func englishSet() TranslationSet {
	return TranslationSet{
		StateAvailable: "available",
		StateReady:     "ready",
		StateRunning:   "running",
		StateSleeping:  "sleeping",

		ProcessTableTitle: "Process Table",
		SysInfoTitle:      "System Info",
		ReadyGraphTitle:   "Ready Queue",
		ConsoleTitle:      "Console",
		HelpTitle:         "Help",

		ColPID:    "PID",
		ColState:  "STATE",
		ColName:   "NAME",
		ColWakeup: "WAKEUP",
		ColParent: "PARENT",

		LabelTotalRAM: "total ram",
		LabelFreeRAM:  "free ram",
		LabelProcs:    "procs",
		LabelIdle:     "idle",
		LabelTicks:    "ticks",

		NotEnoughSpace: "Not enough space to render panels",

		ErrNoFreeSlot:       "no free process slot",
		ErrNoFreePage:       "no free page",
		ErrNilFilename:      "filename is nil",
		ErrUnknownProgram:   "unknown bundled program",
		ErrKernelInvariant:  "kernel invariant violated: current_proc() is nil",
		ErrNoChildToWaitFor: "wait called with no live children",

		Quit:    "quit",
		Step:    "step one tick",
		Confirm: "confirm",
	}
}
