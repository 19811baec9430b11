package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/edupass/internal/config"
	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/models"
	"github.com/edupass/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type stubEmailSender struct {
	failSend bool
	sentTo   []string
	codes    []string
}

func (s *stubEmailSender) SendVerificationCode(toEmail, code string) error {
	if s.failSend {
		return fmt.Errorf("smtp unreachable")
	}
	s.sentTo = append(s.sentTo, toEmail)
	s.codes = append(s.codes, code)
	return nil
}

func (s *stubEmailSender) SendWelcome(toEmail string) error {
	if s.failSend {
		return fmt.Errorf("smtp unreachable")
	}
	s.sentTo = append(s.sentTo, toEmail)
	return nil
}

type stubCodeService struct {
	fail bool
	code string
}

func (s *stubCodeService) GetCode() CodeGenerationResult {
	if s.fail {
		return CodeGenerationResult{Success: false}
	}
	return CodeGenerationResult{Success: true, Code: s.code}
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:   "test-secret",
			Issuer:      "edupass-test",
			ExpireHours: 1,
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		},
		Email: config.EmailConfig{
			VerifyCode: config.VerifyCodeConfig{
				ExpireMinutes:       10,
				SendIntervalSeconds: 60,
				MaxAttempts:         5,
			},
		},
	}
}

func setupAccountServiceTest(t *testing.T) (*AccountService, *gorm.DB, *stubEmailSender) {
	t.Helper()
	dsn := fmt.Sprintf("file:account_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.VerificationCode{},
		&models.LoginLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := testConfig()
	email := &stubEmailSender{}
	svc := NewAccountService(
		cfg,
		repository.NewAccountRepository(db),
		repository.NewVerificationCodeRepository(db),
		repository.NewLoginLogRepository(db),
		NewJWTTokenService(cfg.JWT),
		email,
		&stubCodeService{code: "491827"},
		nil,
	)
	return svc, db, email
}

func mustRegister(t *testing.T, svc *AccountService, email, password, role string) {
	t.Helper()
	result := svc.Register(email, password, password, role)
	if !result.Success {
		t.Fatalf("register failed: kind=%s message=%s", result.Kind, result.Message)
	}
}

func TestRegisterSuccess(t *testing.T) {
	svc, db, email := setupAccountServiceTest(t)

	result := svc.Register("Student@Example.com", "Passw0rd!", "Passw0rd!", "student")
	if !result.Success {
		t.Fatalf("register failed: kind=%s message=%s", result.Kind, result.Message)
	}
	summary, ok := result.Payload.(AccountSummary)
	if !ok {
		t.Fatalf("unexpected payload type %T", result.Payload)
	}
	if summary.Email != "student@example.com" {
		t.Fatalf("email not normalized: %q", summary.Email)
	}
	if summary.Role != constants.RoleStudent {
		t.Fatalf("unexpected role %q", summary.Role)
	}
	if summary.PublicID == "" {
		t.Fatal("public id not assigned")
	}
	if summary.EmailVerified {
		t.Fatal("fresh account must not be email-verified")
	}

	var account models.Account
	if err := db.Where("email = ?", "student@example.com").First(&account).Error; err != nil {
		t.Fatalf("account row missing: %v", err)
	}
	if account.PasswordHash == "Passw0rd!" {
		t.Fatal("password stored in plaintext")
	}

	var code models.VerificationCode
	if err := db.Where("email = ?", "student@example.com").First(&code).Error; err != nil {
		t.Fatalf("verification code row missing: %v", err)
	}
	if !code.IsSent {
		t.Fatal("code not marked sent")
	}
	if len(email.codes) != 1 || email.codes[0] != "491827" {
		t.Fatalf("unexpected sent codes %v", email.codes)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := setupAccountServiceTest(t)

	cases := []struct {
		name     string
		email    string
		password string
		confirm  string
		role     string
		wantKind string
	}{
		{"confirm mismatch", "a@example.com", "Passw0rd!", "Other0ne!", "student", KindInvalidPassword},
		{"weak password", "a@example.com", "password", "password", "student", KindInvalidPassword},
		{"unknown role", "a@example.com", "Passw0rd!", "Passw0rd!", "principal", KindInvalidRole},
		{"malformed email", "not-an-email", "Passw0rd!", "Passw0rd!", "student", KindInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := svc.Register(tc.email, tc.password, tc.confirm, tc.role)
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Kind != tc.wantKind {
				t.Fatalf("kind = %s, want %s", result.Kind, tc.wantKind)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, db, _ := setupAccountServiceTest(t)

	mustRegister(t, svc, "tutor@example.com", "Passw0rd!", "tutor")

	result := svc.Register("Tutor@Example.COM", "Passw0rd!", "Passw0rd!", "tutor")
	if result.Success {
		t.Fatal("duplicate register must fail")
	}
	if result.Kind != KindEmailAlreadyExists {
		t.Fatalf("kind = %s, want %s", result.Kind, KindEmailAlreadyExists)
	}
	if !strings.Contains(result.Message, "already exists") {
		t.Fatalf("message %q does not state the conflict", result.Message)
	}

	var count int64
	if err := db.Model(&models.Account{}).Where("email = ?", "tutor@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one account row, got %d", count)
	}
}

func TestRegisterCodeGenerationFailureKeepsAccount(t *testing.T) {
	svc, db, _ := setupAccountServiceTest(t)
	svc.codeGen = &stubCodeService{fail: true}

	result := svc.Register("student@example.com", "Passw0rd!", "Passw0rd!", "student")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Kind != KindCodeGenerationFailed {
		t.Fatalf("kind = %s, want %s", result.Kind, KindCodeGenerationFailed)
	}

	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("account must be kept after code generation failure, rows=%d", count)
	}
}

func TestRegisterSendFailureKeepsAccount(t *testing.T) {
	svc, db, email := setupAccountServiceTest(t)
	email.failSend = true

	result := svc.Register("student@example.com", "Passw0rd!", "Passw0rd!", "student")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Kind != KindVerificationSendFailed {
		t.Fatalf("kind = %s, want %s", result.Kind, KindVerificationSendFailed)
	}

	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("account must be kept after send failure, rows=%d", count)
	}

	// 补发通道仍然可用
	email.failSend = false
	svc.cfg.Email.VerifyCode.SendIntervalSeconds = 0
	retry := svc.SendVerificationCode("student@example.com")
	if !retry.Success {
		t.Fatalf("resend after send failure should succeed: kind=%s", retry.Kind)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, db, _ := setupAccountServiceTest(t)
	mustRegister(t, svc, "student@example.com", "Passw0rd!", "student")

	client := ClientInfo{IP: "203.0.113.9", UserAgent: "test-agent"}

	result := svc.Authenticate("Student@example.com", "Passw0rd!", client)
	if !result.Success {
		t.Fatalf("authenticate failed: kind=%s message=%s", result.Kind, result.Message)
	}
	payload, ok := result.Payload.(*AuthPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", result.Payload)
	}
	if payload.Token == "" {
		t.Fatal("token missing")
	}
	if !payload.ExpiresAt.After(time.Now()) {
		t.Fatal("token already expired")
	}

	wrong := svc.Authenticate("student@example.com", "WrongPass1!", client)
	if wrong.Success || wrong.Kind != KindInvalidCredentials {
		t.Fatalf("wrong password: kind=%s, want %s", wrong.Kind, KindInvalidCredentials)
	}

	missing := svc.Authenticate("ghost@example.com", "Passw0rd!", client)
	if missing.Success || missing.Kind != KindUserNotFound {
		t.Fatalf("missing account: kind=%s, want %s", missing.Kind, KindUserNotFound)
	}

	// 禁用账号即使密码正确也报告 AccountDisabled
	if err := db.Model(&models.Account{}).Where("email = ?", "student@example.com").
		Update("is_active", false).Error; err != nil {
		t.Fatalf("disable account failed: %v", err)
	}
	disabled := svc.Authenticate("student@example.com", "Passw0rd!", client)
	if disabled.Success || disabled.Kind != KindAccountDisabled {
		t.Fatalf("disabled account: kind=%s, want %s", disabled.Kind, KindAccountDisabled)
	}

	var logs []models.LoginLog
	if err := db.Order("id").Find(&logs).Error; err != nil {
		t.Fatalf("load login logs failed: %v", err)
	}
	if len(logs) != 4 {
		t.Fatalf("expected 4 login log rows, got %d", len(logs))
	}
	if logs[0].Status != constants.LoginLogStatusSuccess || logs[0].IP != "203.0.113.9" {
		t.Fatalf("unexpected first log entry: %+v", logs[0])
	}
	if logs[3].FailReason != constants.LoginLogFailReasonAccountDisabled {
		t.Fatalf("unexpected fail reason %q", logs[3].FailReason)
	}
}

func TestChangePassword(t *testing.T) {
	svc, db, _ := setupAccountServiceTest(t)
	mustRegister(t, svc, "tutor@example.com", "Passw0rd!", "tutor")
	client := ClientInfo{}

	wrongOld := svc.ChangePassword("tutor@example.com", "WrongOld1!", "NewPass1!", "NewPass1!")
	if wrongOld.Success || wrongOld.Kind != KindInvalidCredentials {
		t.Fatalf("wrong old password: kind=%s, want %s", wrongOld.Kind, KindInvalidCredentials)
	}

	weak := svc.ChangePassword("tutor@example.com", "Passw0rd!", "weak", "weak")
	if weak.Success || weak.Kind != KindInvalidPassword {
		t.Fatalf("weak new password: kind=%s, want %s", weak.Kind, KindInvalidPassword)
	}

	missing := svc.ChangePassword("ghost@example.com", "Passw0rd!", "NewPass1!", "NewPass1!")
	if missing.Success || missing.Kind != KindUserNotFound {
		t.Fatalf("missing account: kind=%s, want %s", missing.Kind, KindUserNotFound)
	}

	result := svc.ChangePassword("tutor@example.com", "Passw0rd!", "NewPass1!", "NewPass1!")
	if !result.Success {
		t.Fatalf("change password failed: kind=%s message=%s", result.Kind, result.Message)
	}

	// 改密后旧密码失效，新密码生效
	old := svc.Authenticate("tutor@example.com", "Passw0rd!", client)
	if old.Success || old.Kind != KindInvalidCredentials {
		t.Fatalf("old password still accepted: kind=%s", old.Kind)
	}
	fresh := svc.Authenticate("tutor@example.com", "NewPass1!", client)
	if !fresh.Success {
		t.Fatalf("new password rejected: kind=%s", fresh.Kind)
	}

	var account models.Account
	if err := db.Where("email = ?", "tutor@example.com").First(&account).Error; err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if account.TokenVersion != 1 {
		t.Fatalf("token version = %d, want 1", account.TokenVersion)
	}
	if account.TokenInvalidBefore == nil {
		t.Fatal("token invalid-before not set")
	}
}

func TestSendVerificationCodeThrottle(t *testing.T) {
	svc, _, _ := setupAccountServiceTest(t)
	mustRegister(t, svc, "student@example.com", "Passw0rd!", "student")

	// 注册时刚发过一枚，间隔内再次请求被节流
	throttled := svc.SendVerificationCode("student@example.com")
	if throttled.Success || throttled.Kind != KindTooFrequent {
		t.Fatalf("kind = %s, want %s", throttled.Kind, KindTooFrequent)
	}

	svc.cfg.Email.VerifyCode.SendIntervalSeconds = 0
	allowed := svc.SendVerificationCode("student@example.com")
	if !allowed.Success {
		t.Fatalf("send without throttle failed: kind=%s", allowed.Kind)
	}

	missing := svc.SendVerificationCode("ghost@example.com")
	if missing.Success || missing.Kind != KindUserNotFound {
		t.Fatalf("missing account: kind=%s, want %s", missing.Kind, KindUserNotFound)
	}
}

func TestVerifyCode(t *testing.T) {
	svc, db, _ := setupAccountServiceTest(t)
	mustRegister(t, svc, "student@example.com", "Passw0rd!", "student")

	wrong := svc.VerifyCode("student@example.com", "000000")
	if wrong.Success || wrong.Kind != KindInvalidCode {
		t.Fatalf("wrong code: kind=%s, want %s", wrong.Kind, KindInvalidCode)
	}
	var record models.VerificationCode
	if err := db.Where("email = ?", "student@example.com").First(&record).Error; err != nil {
		t.Fatalf("load code failed: %v", err)
	}
	if record.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", record.Attempts)
	}

	result := svc.VerifyCode("Student@example.com", "491827")
	if !result.Success {
		t.Fatalf("verify failed: kind=%s message=%s", result.Kind, result.Message)
	}

	var account models.Account
	if err := db.Where("email = ?", "student@example.com").First(&account).Error; err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if account.EmailVerifiedAt == nil {
		t.Fatal("account not marked verified")
	}

	// 消费是终态：同一验证码不可重放
	replay := svc.VerifyCode("student@example.com", "491827")
	if replay.Success || replay.Kind != KindCodeExpired {
		t.Fatalf("replay: kind=%s, want %s", replay.Kind, KindCodeExpired)
	}
}

func TestVerifyCodeExpiry(t *testing.T) {
	svc, db, _ := setupAccountServiceTest(t)
	mustRegister(t, svc, "student@example.com", "Passw0rd!", "student")

	// 把唯一一枚验证码的有效期压到当前时刻
	if err := db.Model(&models.VerificationCode{}).
		Where("email = ?", "student@example.com").
		Update("expires_at", time.Now().Add(-time.Second)).Error; err != nil {
		t.Fatalf("backdate code failed: %v", err)
	}

	expired := svc.VerifyCode("student@example.com", "491827")
	if expired.Success || expired.Kind != KindCodeExpired {
		t.Fatalf("kind = %s, want %s", expired.Kind, KindCodeExpired)
	}

	missing := svc.VerifyCode("ghost@example.com", "491827")
	if missing.Success || missing.Kind != KindUserNotFound {
		t.Fatalf("missing account: kind=%s, want %s", missing.Kind, KindUserNotFound)
	}
}

func TestVerifyCodeAttemptLimit(t *testing.T) {
	svc, _, _ := setupAccountServiceTest(t)
	mustRegister(t, svc, "student@example.com", "Passw0rd!", "student")
	svc.cfg.Email.VerifyCode.MaxAttempts = 3

	for i := 0; i < 3; i++ {
		result := svc.VerifyCode("student@example.com", "000000")
		if result.Success || result.Kind != KindInvalidCode {
			t.Fatalf("attempt %d: kind=%s, want %s", i, result.Kind, KindInvalidCode)
		}
	}

	// 超限后即使提交正确验证码也拒绝
	blocked := svc.VerifyCode("student@example.com", "491827")
	if blocked.Success || blocked.Kind != KindInvalidCode {
		t.Fatalf("kind = %s, want %s", blocked.Kind, KindInvalidCode)
	}
}
