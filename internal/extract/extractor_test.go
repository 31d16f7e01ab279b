package extract

import "testing"

func TestExtractBudget(t *testing.T) {
	t.Parallel()

	fields := Extract("วงเงินงบประมาณ 1,234,567.50 บาท")
	if fields.Budget == nil {
		t.Fatal("expected budget to be extracted")
	}
	if fields.Budget.Raw != "1,234,567.50" {
		t.Fatalf("unexpected raw amount: %s", fields.Budget.Raw)
	}
	if fields.Budget.Clean != "1234567.50" {
		t.Fatalf("unexpected clean amount: %s", fields.Budget.Clean)
	}
}

func TestExtractBudgetThaiNumerals(t *testing.T) {
	t.Parallel()

	// Thai digits pass through unconverted; normalization is the caller's job.
	fields := Extract("ราคากลาง ๕๐๐,๐๐๐ บาท")
	if fields.Budget == nil {
		t.Fatal("expected budget to be extracted")
	}
	if fields.Budget.Raw != "๕๐๐,๐๐๐" {
		t.Fatalf("unexpected raw amount: %s", fields.Budget.Raw)
	}
	if fields.Budget.Clean != "๕๐๐๐๐๐" {
		t.Fatalf("unexpected clean amount: %s", fields.Budget.Clean)
	}
}

func TestExtractQuantityFirstMatchWins(t *testing.T) {
	t.Parallel()

	fields := Extract("จำนวน 25 เครื่อง และ จำนวน 99 ชุด")
	if fields.Quantity == nil {
		t.Fatal("expected quantity to be extracted")
	}
	if *fields.Quantity != "25" {
		t.Fatalf("expected first match 25, got %s", *fields.Quantity)
	}
}

func TestExtractDuration(t *testing.T) {
	t.Parallel()

	fields := Extract("ระยะเวลา 2 ปี (24 เดือน)")
	if fields.Duration == nil {
		t.Fatal("expected duration to be extracted")
	}
	if fields.Duration.Years == nil || *fields.Duration.Years != "2" {
		t.Fatalf("unexpected years: %v", fields.Duration.Years)
	}
	if fields.Duration.Months == nil || *fields.Duration.Months != "24" {
		t.Fatalf("unexpected months: %v", fields.Duration.Months)
	}
}

func TestExtractDurationYearsOnly(t *testing.T) {
	t.Parallel()

	fields := Extract("ระยะเวลา 3 ปี นับจากวันลงนาม")
	if fields.Duration == nil {
		t.Fatal("expected duration to be extracted")
	}
	if fields.Duration.Years == nil || *fields.Duration.Years != "3" {
		t.Fatalf("unexpected years: %v", fields.Duration.Years)
	}
	if fields.Duration.Months != nil {
		t.Fatalf("expected months to be absent, got %s", *fields.Duration.Months)
	}
}

func TestExtractSubmission(t *testing.T) {
	t.Parallel()

	fields := Extract("ยื่นข้อเสนอในวันที่ 15 มกราคม 2568 ระหว่างเวลา 08:30 น. ถึง 16.30 น.")
	if fields.Submission == nil {
		t.Fatal("expected submission info to be extracted")
	}
	if fields.Submission.Date == nil || *fields.Submission.Date != "15 มกราคม 2568" {
		t.Fatalf("unexpected date: %v", fields.Submission.Date)
	}
	if fields.Submission.Time == nil || *fields.Submission.Time != "08:30" {
		t.Fatalf("unexpected time: %v", fields.Submission.Time)
	}
}

func TestExtractContact(t *testing.T) {
	t.Parallel()

	fields := Extract("สอบถามทางโทรศัพท์หมายเลข 02-123-4567 หรือ procurement@example.go.th")
	if fields.Contact == nil {
		t.Fatal("expected contact info to be extracted")
	}
	if fields.Contact.Phone == nil || *fields.Contact.Phone != "02-123-4567" {
		t.Fatalf("unexpected phone: %v", fields.Contact.Phone)
	}
	if fields.Contact.Email == nil || *fields.Contact.Email != "procurement@example.go.th" {
		t.Fatalf("unexpected email: %v", fields.Contact.Email)
	}
}

func TestExtractEmptyText(t *testing.T) {
	t.Parallel()

	fields := Extract("")
	if fields.Budget != nil || fields.Quantity != nil || fields.Duration != nil ||
		fields.Submission != nil || fields.Contact != nil {
		t.Fatalf("expected all fields absent, got %+v", fields)
	}
}

func TestExtractPartialResult(t *testing.T) {
	t.Parallel()

	// Only the budget keyword is present; everything else stays absent.
	fields := Extract("จัดซื้อครุภัณฑ์ 750,000 บาท ตามประกาศ")
	if fields.Budget == nil {
		t.Fatal("expected budget to be extracted")
	}
	if fields.Quantity != nil {
		t.Fatalf("expected quantity absent, got %s", *fields.Quantity)
	}
	if fields.Duration != nil || fields.Submission != nil || fields.Contact != nil {
		t.Fatal("expected remaining fields absent")
	}
}
