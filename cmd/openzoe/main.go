package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	_ "github.com/lib/pq"

	"github.com/gabrielamaroufrj/OpenZoe/internal/config"
	"github.com/gabrielamaroufrj/OpenZoe/internal/logger"
	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
	"github.com/gabrielamaroufrj/OpenZoe/internal/report"
	"github.com/gabrielamaroufrj/OpenZoe/internal/srdose"
	"github.com/gabrielamaroufrj/OpenZoe/internal/store"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	configPath := flag.String("config", "openzoe.yaml", "Path to YAML configuration file")
	importDir := flag.String("import", "", "Import DICOM SR files from this directory")
	reportType := flag.String("report", "", "Report to run: time-series, physician-dose, physician-duration, exam-dose, exam-duration")
	list := flag.Bool("list", false, "List stored exams")
	getID := flag.Int64("get", 0, "Show the exam with this id")
	updateID := flag.Int64("update", 0, "Update the exam with this id using the -set-* flags")
	deleteID := flag.Int64("delete", 0, "Delete the exam with this id")
	limit := flag.Int("limit", 15, "Page size for -list")
	offset := flag.Int("offset", 0, "Page offset for -list")

	// Filter flags, all optional. Empty means no constraint.
	from := flag.String("from", "", "Start date (YYYY-MM-DD, inclusive)")
	to := flag.String("to", "", "End date (YYYY-MM-DD, inclusive; ignored without -from)")
	physician := flag.String("physician", "", "Physician id, or semicolon-separated list")
	exam := flag.String("exam", "", "Exam label")
	minDose := flag.String("min-dose", "", "Minimum dose in mGy")
	maxDose := flag.String("max-dose", "", "Maximum dose in mGy")
	minDuration := flag.String("min-duration", "", "Minimum duration (HH:MM:SS)")
	maxDuration := flag.String("max-duration", "", "Maximum duration (HH:MM:SS)")
	minDAP := flag.String("min-dap", "", "Minimum DAP in µGy·m²")
	maxDAP := flag.String("max-dap", "", "Maximum DAP in µGy·m²")
	room := flag.String("room", "", "Room (manufacturer-serial)")
	sex := flag.String("sex", "", "Patient sex (F, M or NI)")
	patient := flag.String("patient", "", "Patient id")

	// Field flags for -update. Fields left empty keep their stored value.
	setDate := flag.String("set-date", "", "New date (YYYY-MM-DD)")
	setPhysician := flag.String("set-physician", "", "New physician id")
	setExam := flag.String("set-exam", "", "New exam label")
	setDose := flag.String("set-dose", "", "New dose in mGy")
	setDuration := flag.String("set-duration", "", "New duration (HH:MM:SS)")
	setDAP := flag.String("set-dap", "", "New DAP in µGy·m²")
	setPatient := flag.String("set-patient", "", "New patient id")
	setSex := flag.String("set-sex", "", "New patient sex (F, M or NI)")
	setRoom := flag.String("set-room", "", "New room")

	examTypes := flag.Bool("exam-types", false, "List registered exam types")
	addExamType := flag.String("add-exam-type", "", "Register an exam type")
	removeExamType := flag.String("remove-exam-type", "", "Remove a registered exam type")
	equipmentTypes := flag.Bool("equipment-types", false, "List registered equipment types")
	addEquipment := flag.String("add-equipment-type", "", "Register an equipment type")
	removeEquipment := flag.String("remove-equipment-type", "", "Remove a registered equipment type")

	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("openzoe %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "openzoe")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open database: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
	}

	st := store.New(db, log)
	if db != nil {
		if err := st.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	f := models.Filter{
		DateFrom:    *from,
		DateTo:      *to,
		MinDose:     *minDose,
		MaxDose:     *maxDose,
		Physician:   models.ParsePhysicianFilter(*physician),
		Exam:        *exam,
		MinDuration: *minDuration,
		MaxDuration: *maxDuration,
		MinDAP:      *minDAP,
		MaxDAP:      *maxDAP,
		Room:        *room,
		Sex:         *sex,
		PatientID:   *patient,
	}

	switch {
	case *importDir != "":
		imp := srdose.NewImporter(st, log)
		imported, failed := imp.ImportDirectory(*importDir)
		fmt.Printf("Imported %d exams, %d errors\n", imported, failed)

	case *getID != 0:
		rec, err := st.GetExam(*getID)
		fatalIf(err)
		printExams([]models.ExamRecord{*rec}, 1)

	case *updateID != 0:
		rec, err := st.GetExam(*updateID)
		fatalIf(err)
		if *setDate != "" {
			rec.Date = *setDate
		}
		if *setPhysician != "" {
			rec.PhysicianID = *setPhysician
		}
		if *setExam != "" {
			rec.ExamLabel = *setExam
		}
		if *setDose != "" {
			v, perr := models.ParseDecimal(*setDose)
			fatalIf(perr)
			rec.DoseMGy = v
		}
		if *setDuration != "" {
			rec.Duration = *setDuration
		}
		if *setDAP != "" {
			v, perr := models.ParseDecimal(*setDAP)
			fatalIf(perr)
			rec.DAP = v
		}
		if *setPatient != "" {
			rec.PatientID = *setPatient
		}
		if *setSex != "" {
			rec.Sex = models.ParseSex(*setSex)
		}
		if *setRoom != "" {
			rec.Room = *setRoom
		}
		fatalIf(st.UpdateExam(*updateID, *rec))
		fmt.Printf("Updated exam %d\n", *updateID)

	case *deleteID != 0:
		if err := st.DeleteExam(*deleteID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted exam %d\n", *deleteID)

	case *reportType != "":
		runReport(report.NewEngine(db, log), *reportType, f)

	case *list:
		recs, total, err := st.ListExams(f, *limit, *offset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printExams(recs, total)

	case *addExamType != "":
		fatalIf(st.AddExamType(*addExamType))
	case *removeExamType != "":
		fatalIf(st.RemoveExamType(*removeExamType))
	case *examTypes:
		names, err := st.ExamTypes()
		fatalIf(err)
		printNames(names)
	case *addEquipment != "":
		fatalIf(st.AddEquipmentType(*addEquipment))
	case *removeEquipment != "":
		fatalIf(st.RemoveEquipmentType(*removeEquipment))
	case *equipmentTypes:
		names, err := st.EquipmentTypes()
		fatalIf(err)
		printNames(names)

	default:
		flag.Usage()
	}
}

func runReport(eng *report.Engine, kind string, f models.Filter) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch kind {
	case "time-series":
		points, multi := eng.TimeSeries(f)
		if multi {
			fmt.Fprintln(w, "DATE\tPHYSICIAN\tEXAMS")
			for _, p := range points {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Date, p.Physician, p.Count)
			}
			return
		}
		fmt.Fprintln(w, "DATE\tEXAMS")
		for _, p := range points {
			fmt.Fprintf(w, "%s\t%d\n", p.Date, p.Count)
		}

	case "physician-dose":
		printStats(w, "PHYSICIAN", false, eng.DoseByPhysician(f))
	case "physician-duration":
		printStats(w, "PHYSICIAN", false, eng.DurationByPhysician(f))
	case "exam-dose":
		rows, multi := eng.DoseByExam(f)
		printStats(w, "EXAM", multi, rows)
	case "exam-duration":
		rows, multi := eng.DurationByExam(f)
		printStats(w, "EXAM", multi, rows)

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown report %q\n", kind)
		os.Exit(1)
	}
}

func printStats(w *tabwriter.Writer, keyName string, multi bool, rows []models.AggregationRow) {
	if multi {
		fmt.Fprintf(w, "%s\tPHYSICIAN\tMEAN\tMIN\tMAX\tCOUNT\n", keyName)
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%d\n", r.Key, r.SubKey, r.Mean, r.Min, r.Max, r.Count)
		}
		return
	}
	fmt.Fprintf(w, "%s\tMEAN\tMIN\tMAX\tCOUNT\n", keyName)
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%d\n", r.Key, r.Mean, r.Min, r.Max, r.Count)
	}
}

func fatalIf(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printNames(names []string) {
	for _, n := range names {
		fmt.Println(n)
	}
}

func printExams(recs []models.ExamRecord, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tDATE\tPHYSICIAN\tEXAM\tDOSE(mGy)\tDURATION\tDAP(µGy·m²)\tPATIENT\tSEX\tROOM")
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%s\t%.2f\t%s\t%s\t%s\n",
			r.ID, r.Date, r.PhysicianID, r.ExamLabel, r.DoseMGy, r.Duration, r.DAP, r.PatientID, r.Sex, r.Room)
	}
	fmt.Fprintf(w, "\n%d of %d exams\n", len(recs), total)
}
