package tools

import "schedulo/internal/services"

// Deps bundles the services the built-in tools operate on.
type Deps struct {
	Users      *services.UserService
	Tags       *services.TagService
	Schedules  *services.ScheduleService
	Timetables *services.TimetableService
	Crawler    *services.CrawlerService
}

// RegisterBuiltInTools registers the full domain tool catalog.
func RegisterBuiltInTools(r *Registry, deps Deps) {
	// User tools
	_ = r.Register(NewGetUserInfoTool(deps.Users))
	_ = r.Register(NewGetUserStudyRoutineTool(deps.Users))
	_ = r.Register(NewGetUserScoreTool(deps.Users))

	// Schedule tools
	_ = r.Register(NewCreateScheduleTool(deps.Schedules))
	_ = r.Register(NewListSchedulesTool(deps.Schedules))
	_ = r.Register(NewUpdateScheduleTool(deps.Schedules))
	_ = r.Register(NewDeleteScheduleTool(deps.Schedules))
	_ = r.Register(NewImportSchedulesTool(deps.Crawler))

	// Tag tools
	_ = r.Register(NewCreateTagTool(deps.Tags))
	_ = r.Register(NewListTagsTool(deps.Tags))
	_ = r.Register(NewUpdateTagTool(deps.Tags))
	_ = r.Register(NewDeleteTagTool(deps.Tags))

	// Timetable tools
	_ = r.Register(NewCreateTimetableTool(deps.Timetables))
	_ = r.Register(NewListTimetableTool(deps.Timetables))
	_ = r.Register(NewUpdateTimetableTool(deps.Timetables))
	_ = r.Register(NewDeleteTimetableTool(deps.Timetables))
	_ = r.Register(NewImportTimetableTool(deps.Crawler))
}
