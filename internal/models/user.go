package models

import "strings"

type YearOfStudy string

const (
	YearFirst    YearOfStudy = "first"
	YearSecond   YearOfStudy = "second"
	YearThird    YearOfStudy = "third"
	YearFourth   YearOfStudy = "fourth"
	YearMasters  YearOfStudy = "masters"
	YearDoctoral YearOfStudy = "doctoral"
)

type User struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	YearOfStudy YearOfStudy `json:"year_of_study"`
	Course      string      `json:"course"`
}

// MatchingProfile is the slice of a user record the discovery queue matches on.
type MatchingProfile struct {
	YearOfStudy YearOfStudy `json:"year_of_study"`
	Department  string      `json:"department"`
}

func (u *User) HasMatchingProfile() bool {
	return u.YearOfStudy != "" && u.Course != ""
}

// DepartmentFromCourse derives the owning department from a course code,
// e.g. "CS201" -> "CS". Course codes are letters followed by digits.
func DepartmentFromCourse(course string) string {
	course = strings.ToUpper(strings.TrimSpace(course))
	for i, r := range course {
		if r >= '0' && r <= '9' {
			return course[:i]
		}
	}
	return course
}
