package staffing

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

func TestAllocate_NoWorkerFillsTwoRoles(t *testing.T) {
	src := newFakeSource()
	electrician := roleWithCerts()
	plumber := roleWithCerts()
	src.roles[electrician.ID] = electrician
	src.roles[plumber.ID] = plumber
	engine := testEngine(src)

	// 两个岗位各需一人，池里只有两名工人
	workerA := testWorker("张三", monToFriSchedule())
	workerB := testWorker("李四", monToFriSchedule())

	result, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{
			{RoleID: electrician.ID, Quantity: 1},
			{RoleID: plumber.ID, Quantity: 1},
		},
		daySlot(friday, 8, 16),
		[]*model.Worker{workerA, workerB})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if !result.Success {
		t.Fatalf("Expected success, got unfilled: %v", result.UnfilledRequirements)
	}
	if len(result.Assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(result.Assignments))
	}
	if result.Assignments[0].WorkerID == result.Assignments[1].WorkerID {
		t.Error("Same worker assigned to two roles")
	}
}

func TestAllocate_ExactlyOneLead(t *testing.T) {
	src := newFakeSource()
	role := roleWithCerts()
	src.roles[role.ID] = role
	engine := testEngine(src)

	pool := []*model.Worker{
		testWorker("张三", monToFriSchedule()),
		testWorker("李四", monToFriSchedule()),
		testWorker("王五", monToFriSchedule()),
	}

	result, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: role.ID, Quantity: 3}},
		daySlot(friday, 8, 16), pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	leads := 0
	for _, a := range result.Assignments {
		if a.IsLead {
			leads++
		}
	}
	if leads != 1 {
		t.Errorf("Expected exactly 1 lead, got %d", leads)
	}
	// 带班人是第一条分配
	if len(result.Assignments) > 0 && !result.Assignments[0].IsLead {
		t.Error("First assignment should be the lead")
	}
}

func TestAllocate_ShortfallRecorded(t *testing.T) {
	src := newFakeSource()
	role := roleWithCerts()
	src.roles[role.ID] = role
	engine := testEngine(src)

	// 需求 3 人，只有 1 名可用工人
	pool := []*model.Worker{testWorker("张三", monToFriSchedule())}

	result, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: role.ID, Quantity: 3}},
		daySlot(friday, 8, 16), pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if result.Success {
		t.Error("Expected success=false with shortfall")
	}
	if len(result.Assignments) != 1 {
		t.Errorf("Expected 1 assignment, got %d", len(result.Assignments))
	}
	if len(result.UnfilledRequirements) != 1 {
		t.Fatalf("Expected 1 unfilled requirement, got %d", len(result.UnfilledRequirements))
	}
	if result.UnfilledRequirements[0].Quantity != 2 {
		t.Errorf("Expected shortfall quantity 2, got %d", result.UnfilledRequirements[0].Quantity)
	}
}

func TestAllocate_NoAvailableWorkers(t *testing.T) {
	src := newFakeSource()
	role := roleWithCerts()
	src.roles[role.ID] = role
	engine := testEngine(src)

	// 周六派工，工人周一至周五出勤
	saturday := friday.AddDate(0, 0, 1)
	pool := []*model.Worker{testWorker("张三", monToFriSchedule())}

	result, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: role.ID, Quantity: 2}},
		daySlot(saturday, 8, 16), pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if result.Success {
		t.Error("Expected success=false")
	}
	if len(result.Assignments) != 0 {
		t.Errorf("Expected no assignments, got %d", len(result.Assignments))
	}
	if len(result.UnfilledRequirements) != 1 || result.UnfilledRequirements[0].Quantity != 2 {
		t.Errorf("Expected full quantity unfilled, got %v", result.UnfilledRequirements)
	}
}

func TestAllocate_MinProficiencyFilter(t *testing.T) {
	src := newFakeSource()
	role := roleWithCerts()
	src.roles[role.ID] = role
	engine := testEngine(src)

	// 资质 50 的新手达不到等级 3（需要 >= 60）
	novice := testWorker("张三", monToFriSchedule())

	// 有经验者资质 70，过线
	veteran := testWorker("李四", monToFriSchedule())
	veteran.RoleHistory = []model.RoleAssignment{{RoleID: role.ID, WorkerID: veteran.ID}}

	result, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: role.ID, Quantity: 2, MinProficiency: 3}},
		daySlot(friday, 8, 16),
		[]*model.Worker{novice, veteran})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if len(result.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(result.Assignments))
	}
	if result.Assignments[0].WorkerID != veteran.ID {
		t.Error("Expected veteran to be assigned")
	}
	if result.Success {
		t.Error("Expected success=false, novice filtered out")
	}
}

func TestAllocate_AverageScore(t *testing.T) {
	src := newFakeSource()
	role := roleWithCerts()
	src.roles[role.ID] = role
	engine := testEngine(src)

	pool := []*model.Worker{
		testWorker("张三", monToFriSchedule()),
		testWorker("李四", monToFriSchedule()),
	}

	result, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: role.ID, Quantity: 2}},
		daySlot(friday, 8, 16), pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	var total float64
	for _, a := range result.Assignments {
		total += a.Score
	}
	want := total / float64(len(result.Assignments))
	if math.Abs(result.AverageScore-want) > 0.001 {
		t.Errorf("Expected average %.3f, got %.3f", want, result.AverageScore)
	}
}

func TestAllocate_InvalidQuantity(t *testing.T) {
	engine := testEngine(newFakeSource())

	_, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: uuid.New(), Quantity: 0}},
		daySlot(friday, 8, 16),
		[]*model.Worker{testWorker("张三", monToFriSchedule())})
	if err == nil {
		t.Error("Expected error for quantity < 1")
	}
}

func TestAllocate_InvalidSlot(t *testing.T) {
	engine := testEngine(newFakeSource())

	slot := model.TimeSlot{Start: friday.Add(16 * time.Hour), End: friday.Add(8 * time.Hour)}
	_, err := engine.Allocate(context.Background(),
		[]model.RoleRequirement{{RoleID: uuid.New(), Quantity: 1}},
		slot,
		[]*model.Worker{testWorker("张三", monToFriSchedule())})
	if err == nil {
		t.Error("Expected error for invalid slot")
	}
}
