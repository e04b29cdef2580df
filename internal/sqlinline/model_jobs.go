package sqlinline

const QInsertModelJob = `--sql 1aadc73a-fee8-4a6c-9780-00123065e9f8
insert into model_jobs (task_id, user_id, source_image_url, status, progress, asset_url, attempts, error_message, created_at, updated_at)
values ($1::text, $2::uuid, $3::text, $4::text, $5::int, nullif($6::text, ''), $7::int, nullif($8::text, ''), now(), now())
returning created_at, updated_at;
`

const QUpdateModelJob = `--sql b136e41a-2222-4000-9ee7-c37ed762f5f9
update model_jobs
set status = $2::text,
    progress = $3::int,
    asset_url = coalesce(nullif($4::text, ''), asset_url),
    attempts = $5::int,
    error_message = nullif($6::text, ''),
    updated_at = now()
where task_id = $1::text
returning updated_at;
`

const QSelectModelJob = `--sql 6c6592df-4898-48bc-9b00-0d83f0983e7e
select task_id, user_id, source_image_url, status, progress, coalesce(asset_url, ''), attempts, coalesce(error_message, ''), created_at, updated_at
from model_jobs
where task_id = $1::text
limit 1;
`

// QClaimPendingModelJobs leases pending jobs to a worker by bumping
// updated_at so a second worker skips them for the lease window.
const QClaimPendingModelJobs = `--sql 7748452c-b42a-4ba4-a6a6-3ea00bcdb595
with next_jobs as (
    select task_id
    from model_jobs
    where status = 'pending'
      and updated_at < now() - interval '1 minute'
    order by created_at asc
    for update skip locked
    limit $1::int
)
update model_jobs
set updated_at = now()
where task_id in (select task_id from next_jobs)
returning task_id, user_id, source_image_url, status, progress, coalesce(asset_url, ''), attempts, coalesce(error_message, ''), created_at, updated_at;
`
