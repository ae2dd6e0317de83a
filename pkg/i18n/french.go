package i18n

func frenchSet() TranslationSet {
	return TranslationSet{
		StateAvailable: "disponible",
		StateReady:     "prêt",
		StateRunning:   "en cours",
		StateSleeping:  "en sommeil",

		ProcessTableTitle: "Table des processus",
		SysInfoTitle:      "Infos système",
		ReadyGraphTitle:   "File des prêts",
		ConsoleTitle:      "Console",
		HelpTitle:         "Aide",

		ColPID:    "PID",
		ColState:  "ÉTAT",
		ColName:   "NOM",
		ColWakeup: "RÉVEIL",
		ColParent: "PARENT",

		LabelTotalRAM: "ram totale",
		LabelFreeRAM:  "ram libre",
		LabelProcs:    "processus",
		LabelIdle:     "inactif",
		LabelTicks:    "ticks",

		NotEnoughSpace: "Pas assez de place pour afficher les panneaux",

		ErrNoFreeSlot:       "aucun emplacement de processus libre",
		ErrNoFreePage:       "aucune page libre",
		ErrNilFilename:      "le nom de fichier est nil",
		ErrUnknownProgram:   "programme embarqué inconnu",
		ErrKernelInvariant:  "invariant du noyau violé : current_proc() est nil",
		ErrNoChildToWaitFor: "wait appelé sans enfant vivant",

		Quit:    "quitter",
		Step:    "avancer d'un tick",
		Confirm: "confirmer",
	}
}
