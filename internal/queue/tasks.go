package queue

// WelcomeEmailPayload 欢迎邮件任务载荷
type WelcomeEmailPayload struct {
	Email string `json:"email"`
}

// CodeExpirySweepPayload 验证码过期回填任务载荷
// CodeID 为 0 时表示全量扫描
type CodeExpirySweepPayload struct {
	CodeID uint `json:"code_id"`
}
