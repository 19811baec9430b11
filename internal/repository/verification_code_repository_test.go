package repository

import (
	"testing"
	"time"

	"github.com/edupass/internal/models"
)

func TestVerificationCodeRepositoryGetLatest(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewVerificationCodeRepository(db)

	now := time.Now()
	first := &models.VerificationCode{AccountID: 1, Email: "a@example.com", Code: "111111", ExpiresAt: now.Add(10 * time.Minute)}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first code failed: %v", err)
	}
	second := &models.VerificationCode{AccountID: 1, Email: "a@example.com", Code: "222222", ExpiresAt: now.Add(10 * time.Minute)}
	if err := repo.Create(second); err != nil {
		t.Fatalf("create second code failed: %v", err)
	}

	latest, err := repo.GetLatest("a@example.com")
	if err != nil {
		t.Fatalf("get latest failed: %v", err)
	}
	if latest == nil || latest.Code != "222222" {
		t.Fatalf("latest code should be the newest record, got %+v", latest)
	}

	missing, err := repo.GetLatest("nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("missing email should be (nil, nil), got %v %v", missing, err)
	}
}

func TestVerificationCodeRepositoryMarkConsumed(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewVerificationCodeRepository(db)

	now := time.Now()
	record := &models.VerificationCode{AccountID: 1, Email: "a@example.com", Code: "111111", ExpiresAt: now.Add(10 * time.Minute)}
	if err := repo.Create(record); err != nil {
		t.Fatalf("create code failed: %v", err)
	}

	firstConsume := now
	if err := repo.MarkConsumed(record.ID, firstConsume); err != nil {
		t.Fatalf("mark consumed failed: %v", err)
	}

	// 重复消费不应覆盖首次消费时间
	if err := repo.MarkConsumed(record.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("repeated mark consumed failed: %v", err)
	}

	var got models.VerificationCode
	if err := db.First(&got, record.ID).Error; err != nil {
		t.Fatalf("reload code failed: %v", err)
	}
	if got.ConsumedAt == nil {
		t.Fatalf("consumed_at should be set")
	}
	if got.ConsumedAt.Sub(firstConsume).Abs() > time.Second {
		t.Fatalf("consumed_at should keep first consumption time, got %v", got.ConsumedAt)
	}
	if got.Usable(now) {
		t.Fatalf("consumed code should not be usable")
	}
}

func TestVerificationCodeRepositoryIncrementAttempt(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewVerificationCodeRepository(db)

	record := &models.VerificationCode{AccountID: 1, Email: "a@example.com", Code: "111111", ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := repo.Create(record); err != nil {
		t.Fatalf("create code failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementAttempt(record.ID); err != nil {
			t.Fatalf("increment attempt failed: %v", err)
		}
	}

	var got models.VerificationCode
	if err := db.First(&got, record.ID).Error; err != nil {
		t.Fatalf("reload code failed: %v", err)
	}
	if got.Attempts != 3 {
		t.Fatalf("attempts want 3 got %d", got.Attempts)
	}
}

func TestVerificationCodeRepositoryExpireOverdue(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewVerificationCodeRepository(db)

	now := time.Now()
	consumedAt := now.Add(-time.Minute)
	records := []*models.VerificationCode{
		{AccountID: 1, Email: "a@example.com", Code: "111111", ExpiresAt: now.Add(-time.Minute)},
		{AccountID: 2, Email: "b@example.com", Code: "222222", ExpiresAt: now.Add(-time.Second)},
		{AccountID: 3, Email: "c@example.com", Code: "333333", ExpiresAt: now.Add(10 * time.Minute)},
		{AccountID: 4, Email: "d@example.com", Code: "444444", ExpiresAt: now.Add(-time.Minute), ConsumedAt: &consumedAt},
	}
	for _, record := range records {
		if err := repo.Create(record); err != nil {
			t.Fatalf("create code failed: %v", err)
		}
	}

	affected, err := repo.ExpireOverdue(now)
	if err != nil {
		t.Fatalf("expire overdue failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected rows want 2 got %d", affected)
	}

	// 再次执行应无新增影响行（幂等）
	affected, err = repo.ExpireOverdue(now)
	if err != nil {
		t.Fatalf("repeated expire overdue failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("repeated sweep should affect 0 rows, got %d", affected)
	}

	var got models.VerificationCode
	if err := db.First(&got, records[2].ID).Error; err != nil {
		t.Fatalf("reload live code failed: %v", err)
	}
	if got.Expired {
		t.Fatalf("live code should not be expired")
	}
}
