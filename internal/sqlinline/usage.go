package sqlinline

// QInsertUsageEvent stores one generation attempt. Request IDs are free-form
// text; an empty one is stored as null.
const QInsertUsageEvent = `--sql e40f651c-a8b3-44c7-a911-bb8a0ed5f6ef
insert into usage_events (id, user_id, request_id, event_type, success, latency_ms, properties, created_at)
select gen_random_uuid(), $1::uuid, nullif($2::text, ''), $3::text, $4::boolean, $5::int,
       coalesce($6::jsonb, '{}'::jsonb), now();
`
