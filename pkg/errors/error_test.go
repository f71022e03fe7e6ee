package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeValidationBadDate, "invalid date")
	suite.NotNil(err)
	suite.Equal(ErrCodeValidationBadDate, err.Code)
	suite.Equal("invalid date", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeValidationBadDate, "invalid date: %s", "test")
	suite.NotNil(err)
	suite.Equal(ErrCodeValidationBadDate, err.Code)
	suite.Equal("invalid date: test", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataUnavailableNoBars, "no bars found", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeDataUnavailableNoBars, err.Code)
	suite.Equal("no bars found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataUnavailableNoBars, cause, "no bars for symbol: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataUnavailableNoBars, err.Code)
	suite.Equal("no bars for symbol: AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeValidationBadDate, "invalid date")
	suite.Equal("[200] invalid date", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataUnavailableNoBars, "no bars found", cause)
	suite.Equal("[300] no bars found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataUnavailableNoBars, "no bars found", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeValidationBadDate, "invalid date")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeValidationBadDate, "invalid date")
	suite.Equal(ErrCodeValidationBadDate, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeDataUnavailableNoBars, "no bars found")
	err := Wrap(ErrCodeInvariantUnknownIndicator, "unknown indicator", cause)
	// GetCode should return the outermost error's code.
	suite.Equal(ErrCodeInvariantUnknownIndicator, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromNonTypedError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeValidationBadDate, "invalid date")
	suite.True(HasCode(err, ErrCodeValidationBadDate))
	suite.False(HasCode(err, ErrCodeDataUnavailableNoBars))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataUnavailableNoBars, "no bars found", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := New(ErrCodeValidationBadDate, "invalid date")
	var typedErr *Error
	suite.True(As(err, &typedErr))
	suite.Equal(ErrCodeValidationBadDate, typedErr.Code)
}

func (suite *ErrorTestSuite) TestKindBuckets() {
	suite.Equal(KindConfiguration, ErrCodeConfigurationUnknownExchange.Kind())
	suite.Equal(KindValidation, ErrCodeValidationBadDate.Kind())
	suite.Equal(KindDataUnavailable, ErrCodeDataUnavailableNoBars.Kind())
	suite.Equal(KindInvariantViolation, ErrCodeInvariantClockExceededClose.Kind())
	suite.Equal(KindModeMismatch, ErrCodeModeMismatchBacktestOnly.Kind())
	suite.Equal(KindIO, ErrCodeIOFileWrite.Kind())
	suite.Equal(KindUnknown, ErrCodeUnknown.Kind())
}

func (suite *ErrorTestSuite) TestGetKind() {
	err := New(ErrCodeInvariantClockExceededClose, "clock exceeded close")
	suite.Equal(KindInvariantViolation, GetKind(err))
}

func (suite *ErrorTestSuite) TestIsFatal() {
	suite.True(IsFatal(New(ErrCodeConfigurationMalformed, "bad config")))
	suite.True(IsFatal(New(ErrCodeInvariantDuplicateStream, "duplicate stream")))
	suite.False(IsFatal(New(ErrCodeValidationBadDate, "bad date")))
	suite.False(IsFatal(New(ErrCodeModeMismatchBacktestOnly, "mode mismatch")))
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(14, 5, "AAPL", "insufficient data for %s", "AAPL")
	suite.Equal(14, err.Required)
	suite.Equal(5, err.Actual)
	suite.Equal("AAPL", err.Symbol)
	suite.True(IsInsufficientDataError(err))
	suite.False(IsInsufficientDataError(errors.New("other")))
}
