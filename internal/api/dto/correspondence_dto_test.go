package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/karyalaya/patra-service/internal/domain"
)

func TestCreateCorrespondenceRequestValidate(t *testing.T) {
	valid := CreateCorrespondenceRequest{
		Subject:            "Budget approval request",
		Priority:           domain.PriorityHigh,
		ReceiverOffice:     "office-head",
		ReceiverDepartment: "dept-admin",
	}
	assert.NoError(t, valid.Validate())

	missingSubject := valid
	missingSubject.Subject = ""
	assert.Error(t, missingSubject.Validate())

	badPriority := valid
	badPriority.Priority = domain.CorrespondencePriority("CRITICAL")
	assert.Error(t, badPriority.Validate())

	missingTarget := valid
	missingTarget.ReceiverDepartment = ""
	assert.Error(t, missingTarget.Validate())
}

func TestTransferRequestValidate(t *testing.T) {
	remarks := "please expedite"
	valid := TransferRequest{
		ReceiverOffice:     "office-head",
		ReceiverDepartment: "dept-finance",
		Remarks:            &remarks,
	}
	assert.NoError(t, valid.Validate())

	long := strings.Repeat("x", domain.MaxTransferRemarksLen+1)
	oversized := valid
	oversized.Remarks = &long
	assert.Error(t, oversized.Validate())

	// The cap counts characters, not bytes: a multibyte remark at the limit
	// passes even though it is three bytes per character.
	devanagari := strings.Repeat("क", domain.MaxTransferRemarksLen)
	multibyte := valid
	multibyte.Remarks = &devanagari
	assert.NoError(t, multibyte.Validate())

	tooManyRunes := strings.Repeat("क", domain.MaxTransferRemarksLen+1)
	multibyte.Remarks = &tooManyRunes
	assert.Error(t, multibyte.Validate())

	noTarget := TransferRequest{}
	assert.Error(t, noTarget.Validate())
}

func TestPatchNotificationRequestValidate(t *testing.T) {
	truthy := true
	falsy := false

	assert.Error(t, PatchNotificationRequest{}.Validate(), "empty patch is rejected")
	assert.Error(t, PatchNotificationRequest{IsRead: &falsy}.Validate(), "is_read never reverts")
	assert.NoError(t, PatchNotificationRequest{IsRead: &truthy}.Validate())
	assert.NoError(t, PatchNotificationRequest{IsStarred: &falsy}.Validate())
}
